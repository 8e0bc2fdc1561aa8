package dto

// Envelope cuerpo uniforme de todas las respuestas HTTP.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK envuelve una respuesta exitosa.
func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Fail envuelve un error con su código estable.
func Fail(code, message string) Envelope {
	return Envelope{Success: false, Message: message, Code: code}
}

// ValidationErrorData detalle de campos inválidos (data de una respuesta 400).
type ValidationErrorData struct {
	Details []string `json:"details"`
}
