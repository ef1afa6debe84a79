package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/weperezh01/isp-core/internal/format"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="es">
<head>
  <meta charset="utf-8" />
  <title>Factura {{.Invoice.NCF}}</title>
  <style>
    :root {
      --primary: {{.ISP.PrimaryColor}};
      --font: "{{.ISP.FontFamily}}";
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: var(--font), "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .invoice {
      max-width: 820px;
      margin: 0 auto;
    }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: flex-start;
      border-bottom: 2px solid var(--primary);
      padding-bottom: 16px;
      margin-bottom: 24px;
    }
    .brand {
      display: flex;
      align-items: center;
      gap: 12px;
    }
    .brand img {
      max-height: 48px;
    }
    .meta {
      text-align: right;
      font-size: 14px;
    }
    .meta .label {
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.04em;
      font-size: 11px;
    }
    .section {
      margin-bottom: 24px;
    }
    table {
      width: 100%;
      border-collapse: collapse;
      font-size: 14px;
    }
    th, td {
      padding: 10px;
      border-bottom: 1px solid #e5e7eb;
      text-align: left;
    }
    th {
      text-transform: uppercase;
      font-size: 11px;
      letter-spacing: 0.04em;
      color: #6b7280;
    }
    .totals {
      margin-top: 12px;
      margin-left: auto;
      width: 280px;
      font-size: 14px;
    }
    .totals div {
      display: flex;
      justify-content: space-between;
      padding: 4px 0;
    }
    .totals .grand {
      border-top: 1px solid #e5e7eb;
      font-size: 16px;
      font-weight: bold;
    }
    .footer {
      border-top: 1px solid #e5e7eb;
      padding-top: 16px;
      font-size: 12px;
      color: #6b7280;
    }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <div class="brand">
        {{if .ISP.LogoURL}}
        <img src="{{.ISP.LogoURL}}" alt="Logo" />
        {{end}}
        <div>
          <div><strong>{{.ISP.Name}}</strong></div>
          {{if .ISP.RNC}}<div>RNC: {{.ISP.RNC}}</div>{{end}}
          <div>{{.ISP.Address}}</div>
          <div>{{.ISP.Phone}}</div>
        </div>
      </div>
      <div class="meta">
        <div class="label">Factura</div>
        <div><strong>NCF {{.Invoice.NCF}}</strong></div>
        <div>Estado: {{.Invoice.Status}}</div>
        <div>Emitida: {{.Invoice.IssueDate}} {{.Invoice.IssueTime}}</div>
      </div>
    </div>

    <div class="section">
      <div class="label">Cliente</div>
      <div><strong>{{.Client.Name}}</strong></div>
      {{if .Client.Cedula}}<div>C&eacute;dula: {{.Client.Cedula}}</div>{{end}}
      {{if .Client.RNC}}<div>RNC: {{.Client.RNC}}</div>{{end}}
      <div>{{.Client.Address}}</div>
      <div>{{.Client.Phone}}</div>
    </div>

    <div class="section">
      <table>
        <thead>
          <tr>
            <th>#</th>
            <th>Descripci&oacute;n</th>
            <th>Cantidad</th>
            <th>Precio Unitario</th>
            <th>Importe</th>
          </tr>
        </thead>
        <tbody>
          {{range .Items}}
          <tr>
            <td>{{.Order}}</td>
            <td>{{.Description}}</td>
            <td>{{formatQuantity .Quantity}}</td>
            <td>{{formatMoney .UnitPrice}}</td>
            <td>{{formatMoney .LineTotal}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>
      <div class="totals">
        <div><span>Subtotal</span><span>{{formatMoney .Invoice.Subtotal}}</span></div>
        {{if not .Invoice.Discount.IsZero}}
        <div><span>Descuento</span><span>-{{formatMoney .Invoice.Discount}}</span></div>
        {{end}}
        <div><span>ITBIS (18%)</span><span>{{formatMoney .Invoice.ITBIS}}</span></div>
        <div class="grand"><span>Total</span><span>{{formatMoney .Invoice.Total}}</span></div>
      </div>
    </div>

    <div class="footer">
      {{if .ISP.FooterNotes}}<div>{{.ISP.FooterNotes}}</div>{{end}}
      <div>Documento generado electr&oacute;nicamente.</div>
    </div>
  </div>
</body>
</html>
`

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontFamilyFilter = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)
)

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney":    format.Currency,
		"formatQuantity": formatQuantity,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	input.ISP.PrimaryColor = sanitizeColor(input.ISP.PrimaryColor)
	input.ISP.FontFamily = sanitizeFont(input.ISP.FontFamily)
	if input.ISP.Name == "" {
		input.ISP.Name = "Factura"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatQuantity(value decimal.Decimal) string {
	return format.Quantity(value)
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "#111827"
	}
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return "#111827"
}

func sanitizeFont(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "Space Grotesk"
	}
	if fontFamilyFilter.MatchString(trimmed) {
		return trimmed
	}
	return "Space Grotesk"
}
