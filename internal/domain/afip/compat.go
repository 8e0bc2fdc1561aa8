package afip

import afipcat "github.com/jhoicas/talonarios-api/pkg/afip"

// TalonarioEmite indica si un talonario de ese tipo puede numerar el (tipo de documento, letra).
// Recibos y remitos tienen talonario propio; la letra E sólo sale de talonarios de exportación
// y éstos no emiten otra letra.
func TalonarioEmite(tipoTalonario, tipoDoc, letra string) bool {
	switch tipoTalonario {
	case afipcat.TalonarioRecibos:
		return tipoDoc == afipcat.TipoRecibo
	case afipcat.TalonarioRemitos, afipcat.TalonarioRemitosElectronicos:
		return tipoDoc == afipcat.TipoRemito
	case afipcat.TalonarioExportacion:
		return letra == afipcat.LetraE && tipoDoc != afipcat.TipoRecibo && tipoDoc != afipcat.TipoRemito
	case afipcat.TalonarioFacturaElectronica, afipcat.TalonarioResguardo:
		return letra != afipcat.LetraE && tipoDoc != afipcat.TipoRecibo && tipoDoc != afipcat.TipoRemito
	default:
		return false
	}
}
