package render

import (
	"bytes"
	"html/template"

	"travelops/internal/domain"
)

type breakdownView struct {
	Number   string
	Original string
	Discount string
	Final    string
}

type pdfData struct {
	emailData
	Lead       domain.Lead
	TravelDate string
	Infants    int
	Breakdowns []breakdownView
}

// PDFHTML renders the printable quotation document. It carries the same
// option content as the email plus the client query table and, where a
// discount applies, the original-vs-final price breakdown.
func (r *Renderer) PDFHTML(view domain.QuotationView, options []string, pol domain.Policies) (string, error) {
	if options == nil {
		options = view.VisibleOptions()
	}
	data := pdfData{
		emailData: r.emailData(view, options, SkinClassic, pol),
		Lead:      view.Lead,
		Infants:   view.Lead.Infants,
	}
	if view.Lead.TravelDate != nil {
		data.TravelDate = view.Lead.TravelDate.Format("02 Jan 2006")
	}
	for _, key := range options {
		p, ok := view.Totals[key]
		if !ok || p.DiscountAmount <= 0 {
			continue
		}
		data.Breakdowns = append(data.Breakdowns, breakdownView{
			Number:   key,
			Original: FormatINR(p.FinalClientPrice + p.DiscountAmount),
			Discount: FormatINR(p.DiscountAmount),
			Final:    FormatINR(p.FinalClientPrice),
		})
	}

	var buf bytes.Buffer
	if err := pdfTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var pdfTmpl = template.Must(template.New("pdf").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; }
.company-header { text-align: center; border-bottom: 3px solid #2563eb; padding: 25px 0; margin-bottom: 25px; }
.company-header h1 { margin: 0; color: #2563eb; font-size: 30px; }
.company-header p { margin: 5px 0 0 0; color: #6b7280; font-size: 13px; }
.content { padding: 0 30px 30px 30px; }
.query-info { background: #eff6ff; padding: 20px; border-radius: 8px; margin-bottom: 25px; border: 1px solid #bfdbfe; }
.query-info h3 { margin-top: 0; color: #1e40af; }
.option-section { border: 2px solid #2563eb; border-radius: 8px; padding: 25px; margin: 25px 0; page-break-inside: avoid; }
.option-header { background: #2563eb; color: white; padding: 12px; border-radius: 8px; margin-bottom: 18px; }
.hotel-card { background: #f9fafb; padding: 15px; border-radius: 8px; margin: 12px 0; border-left: 4px solid #2563eb; }
.price-box { background: #059669; color: white; padding: 18px; text-align: center; border-radius: 8px; margin: 18px 0; font-size: 22px; font-weight: bold; }
.breakdown { background: #fefce8; border: 2px solid #eab308; border-radius: 8px; padding: 20px; margin: 25px 0; page-break-inside: avoid; }
.breakdown h3 { margin-top: 0; color: #854d0e; }
.breakdown .strike { text-decoration: line-through; color: #9ca3af; }
.breakdown .saved { color: #dc2626; font-weight: bold; }
.breakdown .final { color: #059669; font-weight: bold; font-size: 18px; }
.policy-section { background: #f8f9fa; padding: 18px; border-radius: 8px; margin-top: 18px; border: 1px solid #d1d5db; page-break-inside: avoid; }
.footer { border-top: 2px solid #2563eb; margin-top: 30px; padding: 18px; text-align: center; color: #6b7280; font-size: 13px; }
table { width: 100%; border-collapse: collapse; }
td { padding: 7px; border-bottom: 1px solid #e5e7eb; }
.label { font-weight: bold; color: #4b5563; width: 180px; }
</style>
</head>
<body>
<div class="company-header">
<h1>{{.Company.Name}}</h1>
<p>{{.Company.Line}}</p>
</div>
<div class="content">
<div class="query-info">
<h3>Query Information</h3>
<table>
<tr><td class="label">Query ID:</td><td>{{.QueryID}}</td></tr>
<tr><td class="label">Client Name:</td><td>{{.Lead.ClientName}}</td></tr>
<tr><td class="label">Destination:</td><td>{{if .Itinerary.Destination}}{{.Itinerary.Destination}}{{else}}N/A{{end}}</td></tr>
<tr><td class="label">Duration:</td><td>{{.Nights}} Nights &amp; {{.Days}} Days</td></tr>
{{if .TravelDate}}<tr><td class="label">Travel Date:</td><td>{{.TravelDate}}</td></tr>{{end}}
<tr><td class="label">Travellers:</td><td>{{.Adults}} Adults, {{.Children}} Children, {{.Infants}} Infants</td></tr>
</table>
</div>
{{range .Options}}
<div class="option-section">
<div class="option-header"><h2 style="margin: 0; font-size: 22px;">Option {{.Number}}</h2></div>
{{range .Hotels}}
<div class="hotel-card">
<h4 style="margin-top: 0; color: #2563eb;">Day {{.Day}}: {{if .Name}}{{.Name}}{{else}}Hotel{{end}}</h4>
<p><strong>Category:</strong> {{if .Stars}}{{.Stars}} Star{{else}}N/A{{end}}
&nbsp;|&nbsp; <strong>Room:</strong> {{if .Room}}{{.Room}}{{else}}N/A{{end}}
&nbsp;|&nbsp; <strong>Meal Plan:</strong> {{if .MealPlan}}{{.MealPlan}}{{else}}N/A{{end}}</p>
{{if .CheckIn}}<p><strong>Check-in:</strong> {{.CheckIn}}{{if .CheckOut}} &nbsp;|&nbsp; <strong>Check-out:</strong> {{.CheckOut}}{{end}}</p>{{end}}
</div>
{{end}}
<div class="price-box">Total Package Price: {{.Total}}</div>
</div>
{{end}}
{{range .Breakdowns}}
<div class="breakdown">
<h3>Special Discount - Option {{.Number}}</h3>
<table>
<tr><td class="label">Original Price:</td><td class="strike">{{.Original}}</td></tr>
<tr><td class="label">You Save:</td><td class="saved">{{.Discount}}</td></tr>
<tr><td class="label">Final Price:</td><td class="final">{{.Final}}</td></tr>
</table>
</div>
{{end}}
{{range .Policies}}
<div class="policy-section">
<h4 style="margin: 0 0 10px 0; font-size: 16px; color: #1e40af;">{{.Title}}</h4>
<div style="color: #555; font-size: 13px;">{{.Body}}</div>
</div>
{{end}}
{{if .ThankYou}}
<div class="policy-section">
<div style="color: #555; font-size: 13px;">{{.ThankYou}}</div>
</div>
{{end}}
</div>
<div class="footer">
<p>Thank you for choosing {{.Company.Name}}!</p>
<p>{{.Company.Line}}</p>
</div>
</body>
</html>
`))
