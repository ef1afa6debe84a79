package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/searchfilter"
)

// Searchable fields per entity, matching what the list screens scan.
var (
	clientSearchFields     = []string{"id_cliente", "nombres", "apellidos", "cedula", "telefono1", "correo_elect", "direccion"}
	connectionSearchFields = []string{"id_conexion", "id_cliente", "direccion", "plan", "estado"}
	invoiceSearchFields    = []string{"id_factura", "ncf", "id_cliente", "descripcion", "estado", "monto_total"}
	receiptSearchFields    = []string{"id_recibo", "id_factura", "id_cliente", "referencia", "metodo", "monto"}
	routerSearchFields     = []string{"id_router", "nombre_router", "ip_router", "marca", "estado"}
)

// filteredJSON applies the ?q= filter over the JSON form of items. The query
// is taken as-is, whitespace included, matching the original screens.
func filteredJSON(c *gin.Context, items any, fields []string) ([]searchfilter.Record, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	var records []searchfilter.Record
	if err := json.Unmarshal(encoded, &records); err != nil {
		return nil, err
	}
	return searchfilter.Filter(records, c.Query("q"), fields), nil
}
