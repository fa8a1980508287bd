package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"salgados/internal/lifecycle"
	"salgados/internal/models"
)

// Message converts an operation error into the text shown to the user.
func Message(err error) string {
	var (
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateError
		protected  *models.ProtectedRecordError
		immutable  *models.ImmutableRecordError
		validation *models.ValidationError
		conflict   *models.ConcurrentModificationError
		illegal    *models.IllegalTransitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrUnauthenticated):
		return "Faça login como administrador para continuar."
	case errors.Is(err, models.ErrInvalidCredentials):
		return "Usuário ou senha inválidos."
	case errors.As(err, &notFound):
		return fmt.Sprintf("Registro %s não encontrado.", notFound.ID)
	case errors.As(err, &duplicate):
		return fmt.Sprintf("Já existe um cadastro com %s %q.", fieldLabel(duplicate.Field), duplicate.Value)
	case errors.As(err, &protected):
		return "Este registro é protegido e não pode ser removido."
	case errors.As(err, &immutable):
		return "Itens do cardápio padrão não podem ser alterados."
	case errors.As(err, &validation):
		keys := make([]string, 0, len(validation.Fields))
		for k := range validation.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", fieldLabel(k), validation.Fields[k]))
		}
		return "Verifique os campos: " + strings.Join(parts, "; ")
	case errors.As(err, &conflict):
		return "Os dados foram alterados por outra sessão. Recarregue e tente novamente."
	case errors.As(err, &illegal):
		return fmt.Sprintf("Não é possível passar de %q para %q.", lifecycle.Label(illegal.From), lifecycle.Label(illegal.To))
	}
	return "Erro inesperado: " + err.Error()
}

func fieldLabel(field string) string {
	switch field {
	case "phone":
		return "telefone"
	case "email":
		return "e-mail"
	case "username":
		return "usuário"
	case "name":
		return "nome"
	case "password":
		return "senha"
	case "confirmPassword":
		return "confirmação de senha"
	}
	return field
}
