package dto_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/talonarios-api/internal/application/dto"
)

func TestLetterList_TextoYObjetos(t *testing.T) {
	var l dto.LetterList
	require.NoError(t, json.Unmarshal([]byte(`["A", {"letra":"B","descripcion":"Factura B"}, " c "]`), &l))
	assert.Equal(t, dto.LetterList{{Letra: "A"}, {Letra: "B", Descripcion: "Factura B"}, {Letra: " c "}}, l)

	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Nil(t, l)

	assert.Error(t, json.Unmarshal([]byte(`"A"`), &l))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &l))
}

func TestUpdateTalonarioRequest_EnvueltoOPlano(t *testing.T) {
	var wrapped dto.UpdateTalonarioRequest
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"descripcion":"x","docstatus":1}}`), &wrapped))
	require.NotNil(t, wrapped.Descripcion)
	assert.Equal(t, "x", *wrapped.Descripcion)
	require.NotNil(t, wrapped.Docstatus)
	assert.Equal(t, 1, *wrapped.Docstatus)

	var plain dto.UpdateTalonarioRequest
	require.NoError(t, json.Unmarshal([]byte(`{"por_defecto":true,"letras":["A"]}`), &plain))
	require.NotNil(t, plain.PorDefecto)
	assert.True(t, *plain.PorDefecto)
	require.NotNil(t, plain.Letras)
	assert.Len(t, *plain.Letras, 1)
	assert.Nil(t, plain.Descripcion)
}

func TestEnvelope(t *testing.T) {
	b, err := json.Marshal(dto.Fail("NOT_FOUND", "talonario no encontrado"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"talonario no encontrado","code":"NOT_FOUND"}`, string(b))
}
