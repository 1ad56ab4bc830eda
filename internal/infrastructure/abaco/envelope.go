package abaco

import (
	"encoding/xml"
	"fmt"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// The request namespace and field names come from the eAgata WSDL; the "C"
// search-mode flag selects lookup by contributor tax id.
const lookupEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:eag="eAgata_Arapiraca_Maceio_Ev3">
   <soapenv:Header/>
   <soapenv:Body>
      <eag:PWSRetornoPertences.Execute>
         <eag:Flagtipopesquisa>C</eag:Flagtipopesquisa>
         <eag:Ctgcpf>%s</eag:Ctgcpf>
         <eag:Ctiinscricao></eag:Ctiinscricao>
      </eag:PWSRetornoPertences.Execute>
   </soapenv:Body>
</soapenv:Envelope>`

func buildLookupEnvelope(taxID string) string {
	return fmt.Sprintf(lookupEnvelopeTemplate, taxID)
}

// Response shape. The backend emits the item list, the company sub-list and
// the property sub-list each as absent, a single element or repeated elements;
// decoding into slices collapses all three shapes before any logic runs.
type lookupEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			Items []pertencesItem `xml:"Sdtretornopertences>SDTRetornoPertences.SDTRetornoPertencesItem"`
		} `xml:"PWSRetornoPertences.ExecuteResponse"`
	} `xml:"Body"`
}

type pertencesItem struct {
	OwnerName    string         `xml:"SRPNomeContribuinte"`
	OwnerTaxID   string         `xml:"SRPCPFCNPJContribuinte"`
	InvalidTaxID string         `xml:"SRPCPFCNPJInvalido"`
	Companies    []companyItem  `xml:"SDTRetornoPertencesEmpresa>SDTRetornoPertencesEmpresaItem"`
	Properties   []propertyItem `xml:"SDTRetornoPertencesImovel>SDTRetornoPertencesImovelItem"`
}

type companyItem struct {
	RegistrationID string `xml:"SRPInscricaoEmpresa"`
	Autonomous     string `xml:"SRPAutonomo"`
	Address        string `xml:"SRPEnderecoEmpresa"`
	OpenDebt       string `xml:"SRPPossuiDebitoEmpresa"`
	DebtSuspended  string `xml:"SRPDebitoSuspensoEmpresa"`
}

type propertyItem struct {
	RegistrationID  string `xml:"SRPInscricaoImovel"`
	PropertyType    string `xml:"SRPTipoImovel"`
	Address         string `xml:"SRPEnderecoImovel"`
	OpenDebt        string `xml:"SRPPossuiDebitoImovel"`
	DebtSuspended   string `xml:"SRPDebitoSuspensoImovel"`
	OwnerDescriptor string `xml:"SRPTipoProprietario"`
}

// parsePertences flattens the nested response into the entity list shown to
// the user: companies first, then properties, both in response order. Missing
// optional fields stay empty; missing debt flags mean "N".
func parsePertences(raw []byte, defaultRegion string) ([]domain.Entity, error) {
	var envelope lookupEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode lookup envelope: %w", err)
	}

	entities := make([]domain.Entity, 0)
	for _, item := range envelope.Body.Response.Items {
		if item.InvalidTaxID == "S" {
			return nil, domain.WrapError(domain.ErrInvalidTaxID, "lookup pertences",
				fmt.Errorf("backend flagged tax id as invalid"))
		}

		for _, company := range item.Companies {
			if company.RegistrationID == "" {
				continue
			}
			subtype := "EMPRESA"
			if company.Autonomous == "A" {
				subtype = "AUTÔNOMO"
			}
			entities = append(entities, domain.Entity{
				Kind:           domain.KindCompany,
				RegistrationID: company.RegistrationID,
				Subtype:        subtype,
				Address:        domain.NormalizeAddress(company.Address, defaultRegion),
				HasOpenDebt:    company.OpenDebt == "S",
				DebtSuspended:  company.DebtSuspended == "S",
				OwnerName:      item.OwnerName,
				OwnerTaxID:     item.OwnerTaxID,
			})
		}

		for _, property := range item.Properties {
			if property.RegistrationID == "" {
				continue
			}
			entities = append(entities, domain.Entity{
				Kind:            domain.KindProperty,
				RegistrationID:  property.RegistrationID,
				Subtype:         property.PropertyType,
				Address:         domain.NormalizeAddress(property.Address, defaultRegion),
				HasOpenDebt:     property.OpenDebt == "S",
				DebtSuspended:   property.DebtSuspended == "S",
				OwnerDescriptor: property.OwnerDescriptor,
				OwnerName:       item.OwnerName,
				OwnerTaxID:      item.OwnerTaxID,
			})
		}
	}
	return entities, nil
}
