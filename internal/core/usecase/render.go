package usecase

import (
	"fmt"
	"strings"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// Rendering of every user-facing message. All lists are 1-based and follow the
// exact order of session.Entities; nothing here may re-sort what was shown.

const maxChoiceAddressLen = 50

func renderWelcome() string {
	return "Olá! Seja bem-vindo ao Assistente Virtual da Prefeitura!\n\n" +
		"📋 Digite seu CPF ou CNPJ para consultar os vínculos cadastrados:"
}

func renderNewLookupPrompt() string {
	return "📋 Digite o CPF ou CNPJ para consultar os vínculos cadastrados:"
}

func renderSearching() string {
	return "🔍 Consultando vínculos... Aguarde um momento."
}

func renderLookupResult(entities []domain.Entity, limit int) string {
	shown := entities
	if len(shown) > limit {
		shown = shown[:limit]
	}
	hidden := len(entities) - len(shown)

	var companies, properties int
	for _, e := range entities {
		if e.Kind == domain.KindCompany {
			companies++
		} else {
			properties++
		}
	}

	var b strings.Builder
	b.WriteString("✅ Vínculos encontrados para:\n")
	b.WriteString("👤 " + entities[0].OwnerName + "\n")
	b.WriteString("📄 CPF/CNPJ: " + entities[0].OwnerTaxID + "\n\n")

	fmt.Fprintf(&b, "📊 Resumo: %d %s\n", len(entities), pluralize(len(entities), "vínculo encontrado", "vínculos encontrados"))
	if companies > 0 {
		fmt.Fprintf(&b, "   🏢 %d %s\n", companies, pluralize(companies, "empresa", "empresas"))
	}
	if properties > 0 {
		fmt.Fprintf(&b, "   🏠 %d %s\n", properties, pluralize(properties, "imóvel", "imóveis"))
	}
	b.WriteString("\n")

	if hidden > 0 {
		fmt.Fprintf(&b, "⚠️ Por questões de segurança, exibindo apenas os primeiros %d vínculos.\n", limit)
		fmt.Fprintf(&b, "📋 %d %s, consulte diretamente na Prefeitura.\n\n",
			hidden, pluralize(hidden, "vínculo não exibido", "vínculos não exibidos"))
	}

	for i, e := range shown {
		fmt.Fprintf(&b, "%d - %s: %s\n", i+1, e.Kind, e.RegistrationID)
		if e.Subtype != "" {
			b.WriteString("   🏷️ " + e.Subtype + "\n")
		}
		if e.OwnerDescriptor != "" {
			b.WriteString("   👤 Proprietário: " + e.OwnerDescriptor + "\n")
		}
		if e.Address != "" {
			b.WriteString("   📍 " + e.Address + "\n")
		}
		if e.HasOpenDebt {
			b.WriteString("   ⚠️ Possui débito\n")
		}
		if e.DebtSuspended {
			b.WriteString("   ⏸️ Débito suspenso\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("📄 Deseja emitir algum documento?\n\n")
	b.WriteString("1 - Sim, emitir documento\n")
	b.WriteString("2 - Não, encerrar atendimento")
	return b.String()
}

func renderEntityChoices(entities []domain.Entity, limit int) string {
	shown := entities
	if len(shown) > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	b.WriteString("📋 Selecione o vínculo para emitir documento:\n\n")
	for i, e := range shown {
		fmt.Fprintf(&b, "%d - %s: %s", i+1, e.Kind, e.RegistrationID)
		if e.Address != "" {
			b.WriteString(" - " + truncate(e.Address, maxChoiceAddressLen))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n💬 Digite o número do vínculo:")
	return b.String()
}

func renderDocumentMenu(e domain.Entity) string {
	var b strings.Builder
	b.WriteString("📄 Vínculo selecionado:\n")
	fmt.Fprintf(&b, "%s: %s\n\n", e.Kind, e.RegistrationID)
	b.WriteString("Selecione o tipo de documento:\n\n")
	for _, opt := range domain.AvailableDocuments(e.Kind) {
		fmt.Fprintf(&b, "%d - %s\n", opt.LocalID, opt.DisplayName)
	}
	b.WriteString("\n💬 Digite o número do documento desejado:")
	return b.String()
}

func renderCatalogMismatch(kind domain.EntityKind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Este documento não está disponível para vínculos do tipo %s.\n\n", kind)
	b.WriteString("Opções válidas:\n")
	for _, opt := range domain.AvailableDocuments(kind) {
		fmt.Fprintf(&b, "%d - %s\n", opt.LocalID, opt.DisplayName)
	}
	b.WriteString("\n💬 Digite o número do documento desejado:")
	return b.String()
}

func renderGenerating(docName string) string {
	return fmt.Sprintf("📝 Gerando %s... Aguarde um momento.", docName)
}

func renderIssuanceSuccess(docName string, res domain.DocumentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 %s gerado com sucesso!\n\n", docName)
	b.WriteString("📄 Link do documento: " + res.Link + "\n")
	if res.Message != "" {
		b.WriteString("\n✅ Status: " + res.Message + "\n")
	}
	b.WriteString("\nClique no link acima para visualizar/baixar seu documento.")
	return b.String()
}

func renderIssuanceRejected(reason string) string {
	if strings.TrimSpace(reason) == "" {
		reason = "Erro desconhecido"
	}
	return "❌ Não foi possível emitir o documento.\n\nMotivo: " + reason
}

func renderIssuanceUnavailable() string {
	return "❌ Não foi possível emitir o documento.\n\n" +
		"Motivo: serviço de emissão indisponível no momento. Tente novamente mais tarde."
}

func renderPostIssuanceMenu() string {
	return "O que deseja fazer agora?\n\n" +
		"1 - Emitir outro documento para este vínculo\n" +
		"2 - Consultar outro CPF/CNPJ\n" +
		"3 - Encerrar atendimento"
}

func renderClosing() string {
	return "👋 Atendimento encerrado. Obrigado por utilizar nosso serviço!\n\n" +
		"Se precisar de algo, é só me chamar novamente."
}

func renderNoEntities() string {
	return "❌ Nenhuma inscrição vinculada encontrada para este CPF/CNPJ.\n\n" +
		"Verifique se o número está correto e tente novamente."
}

func renderLookupUnavailable() string {
	return "❌ Erro ao consultar vínculos. O serviço está indisponível no momento, tente novamente mais tarde."
}

func renderInvalidTaxIDReported() string {
	return "❌ CPF/CNPJ inválido. Verifique o número informado e inicie uma nova consulta."
}

const (
	warnTaxIDFormat     = "❌ CPF/CNPJ inválido. Informe apenas números, com ou sem pontuação."
	warnContinueChoice  = "❌ Opção inválida. Digite 1 para emitir documento ou 2 para encerrar."
	warnEntityChoice    = "❌ Número inválido. Digite o número correspondente ao vínculo desejado."
	warnDocumentChoice  = "❌ Opção inválida. Digite o número do documento desejado."
	warnPostIssuanceOpt = "❌ Opção inválida. Digite 1, 2 ou 3."
)

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
