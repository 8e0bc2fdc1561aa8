package erpnext

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/jhoicas/talonarios-api/internal/domain"
)

// UpstreamError rechazo de ERPNext (4xx distinto de 404) con mensaje legible.
// errors.Is(err, domain.ErrUpstreamRejected) es verdadero.
type UpstreamError struct {
	Status  int
	ExcType string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrUpstreamRejected.Error(), e.Message)
}

func (e *UpstreamError) Unwrap() error { return domain.ErrUpstreamRejected }

// frappeError cuerpo de error que devuelve Frappe.
type frappeError struct {
	ExcType        string `json:"exc_type"`
	Exception      string `json:"exception"`
	ServerMessages string `json:"_server_messages"`
	Message        any    `json:"message"`
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML quita etiquetas y entidades y colapsa espacios.
func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// serverMessages decodifica _server_messages: un string JSON con un arreglo de strings JSON
// que a su vez son objetos {"message": "..."} (o texto plano en versiones viejas).
func serverMessages(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var obj struct {
			Message string `json:"message"`
		}
		msg := item
		if err := json.Unmarshal([]byte(item), &obj); err == nil && obj.Message != "" {
			msg = obj.Message
		}
		if msg = stripHTML(msg); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}

// exceptionText parte útil de "frappe.exceptions.XError: texto".
func exceptionText(exc string) string {
	exc = strings.TrimSpace(exc)
	if i := strings.Index(exc, ": "); i >= 0 {
		exc = exc[i+2:]
	}
	if i := strings.IndexByte(exc, '\n'); i >= 0 {
		exc = exc[:i]
	}
	return stripHTML(exc)
}

// humanize arma un mensaje en castellano a partir del cuerpo de error de Frappe.
func humanize(status int, body []byte) *UpstreamError {
	var fe frappeError
	_ = json.Unmarshal(body, &fe)

	excType := fe.ExcType
	if excType == "" && fe.Exception != "" {
		head := fe.Exception
		if i := strings.Index(head, ":"); i >= 0 {
			head = head[:i]
		}
		if i := strings.LastIndexByte(head, '.'); i >= 0 {
			head = head[i+1:]
		}
		excType = strings.TrimSpace(head)
	}

	detail := strings.Join(serverMessages(fe.ServerMessages), " ")
	if detail == "" {
		detail = exceptionText(fe.Exception)
	}
	if s, ok := fe.Message.(string); ok && detail == "" {
		detail = stripHTML(s)
	}

	var msg string
	switch excType {
	case "LinkExistsError":
		msg = "el documento está vinculado a otros registros y no puede modificarse"
	case "DuplicateEntryError":
		msg = "ya existe un documento con ese nombre"
	case "TimestampMismatchError":
		msg = "el documento fue modificado por otro usuario; recargue e intente nuevamente"
	case "MandatoryError":
		msg = "faltan campos obligatorios"
		if d := exceptionText(fe.Exception); d != "" {
			msg += ": " + d
		}
	default:
		msg = detail
	}
	if msg == "" {
		msg = fmt.Sprintf("ERPNext respondió HTTP %d", status)
	}
	return &UpstreamError{Status: status, ExcType: excType, Message: msg}
}
