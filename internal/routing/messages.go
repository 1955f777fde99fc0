package routing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var knownErrorMessages = map[string]string{
	"unauthorized":            "Sessão inválida ou expirada. Faça login novamente.",
	"forbidden":               "Você não tem permissão para executar esta operação.",
	"tenant_missing":          "Tenant não identificado na requisição.",
	"tenant_mismatch":         "O tenant informado não corresponde à sessão.",
	"invalid_request":         "Requisição inválida. Verifique os dados enviados.",
	"not_found":               "Recurso não encontrado.",
	"method_not_allowed":      "Método não permitido para este recurso.",
	"internal_error":          "Erro interno. Tente novamente em instantes.",
	"EMPTY_CART":              "O pedido precisa ter pelo menos um item.",
	"INVALID_QUANTITY":        "A quantidade de cada item deve ser maior que zero.",
	"INVALID_CLIENT":          "Informe o cliente do pedido.",
	"CLIENT_NOT_FOUND":        "Cliente não encontrado.",
	"PRODUCT_NOT_FOUND":       "Produto não encontrado.",
	"ORDER_NOT_FOUND":         "Pedido não encontrado.",
	"INSUFFICIENT_STOCK":      "Estoque insuficiente.",
	"ALREADY_CANCELLED":       "O pedido já está cancelado.",
	"ALREADY_COMPLETED":       "O pedido já está concluído.",
	"INVALID_STATUS_TARGET":   "Status de destino inválido.",
	"IDEMPOTENCY_IN_PROGRESS": "Uma requisição com esta chave ainda está em processamento.",
	"NAME_REQUIRED":           "Informe o nome.",
	"EMAIL_INVALID":           "E-mail inválido.",
	"PRICE_INVALID":           "O preço deve ser maior que zero.",
	"STOCK_INVALID":           "O estoque não pode ser negativo.",
}

var upperWords = map[string]string{
	"api":  "API",
	"db":   "DB",
	"id":   "ID",
	"jwt":  "JWT",
	"rls":  "RLS",
	"uuid": "UUID",
}

func knownErrorMessage(code string) string {
	return knownErrorMessages[strings.TrimSpace(code)]
}

// normalizeErrorMessage keeps explicit messages and replaces generic
// ones (empty, equal to the code, "x failed") with something readable.
func normalizeErrorMessage(code string, message string) string {
	message = strings.TrimSpace(message)
	if !isGenericErrorMessage(code, message) {
		return message
	}
	if known := knownErrorMessage(code); known != "" {
		return known
	}
	return humanizeErrorCode(code)
}

func isGenericErrorMessage(code string, message string) bool {
	m := strings.TrimSpace(message)
	if m == "" {
		return true
	}
	lower := strings.ToLower(m)
	if strings.EqualFold(m, strings.TrimSpace(code)) {
		return true
	}
	switch lower {
	case "internal_error", "internal error", "not found", "not_found", "forbidden", "unauthorized", "method not allowed":
		return true
	}
	if !strings.Contains(lower, " ") && (strings.HasSuffix(lower, "_failed") || strings.HasSuffix(lower, "_error")) {
		return true
	}
	words := strings.Fields(lower)
	return len(words) <= 3 && (strings.HasSuffix(lower, " failed") || strings.HasSuffix(lower, " error"))
}

func humanizeErrorCode(code string) string {
	words := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(code)), func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})
	if len(words) == 0 {
		return "Request failed."
	}
	if len(words) == 1 && (words[0] == "failed" || words[0] == "error") {
		return "Request " + words[0] + "."
	}
	return titleCaseWords(words) + "."
}

// titleCaseWords capitalizes the first word and upper-cases acronyms.
func titleCaseWords(words []string) string {
	if len(words) == 0 {
		return ""
	}
	out := make([]string, len(words))
	for i, w := range words {
		switch {
		case upperWords[w] != "":
			out[i] = upperWords[w]
		case i == 0:
			out[i] = capitalizeWord(w)
		default:
			out[i] = w
		}
	}
	return strings.Join(out, " ")
}

func capitalizeWord(w string) string {
	if w == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}
