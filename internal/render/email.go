package render

import (
	"bytes"
	"html/template"

	"travelops/internal/domain"
)

// Company is the agency block stamped on every outbound document.
type Company struct {
	Name string
	Line string
}

// Renderer turns a QuotationView into the outbound document formats.
// One layout serves every email skin; the skin descriptor carries all
// visual variation.
type Renderer struct {
	Company Company
}

func New(company Company) *Renderer {
	return &Renderer{Company: company}
}

type hotelView struct {
	Day      int
	Name     string
	Stars    int
	Room     string
	MealPlan string
	Price    string
	HasPrice bool
	Image    string
	CheckIn  string
	CheckOut string
}

type optionView struct {
	Number string
	Hotels []hotelView
	Total  string
}

type emailData struct {
	Company   Company
	Skin      Skin
	Itinerary domain.ItineraryMeta
	QueryID   string
	Adults    int
	Children  int
	Nights    int
	Days      int
	Options   []optionView
	Policies  []policyBlock
	ThankYou  template.HTML
}

// Email renders the quotation as email HTML in the given skin.
// options narrows the rendered option numbers; nil means every option
// visible in the view.
func (r *Renderer) Email(view domain.QuotationView, options []string, skinID string, pol domain.Policies) (string, error) {
	data := r.emailData(view, options, skinID, pol)
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) emailData(view domain.QuotationView, options []string, skinID string, pol domain.Policies) emailData {
	if options == nil {
		options = view.VisibleOptions()
	}
	return emailData{
		Company:   r.Company,
		Skin:      SkinByID(skinID),
		Itinerary: view.Itinerary,
		QueryID:   view.Lead.QueryID(),
		Adults:    view.Lead.Adults,
		Children:  view.Lead.Children,
		Nights:    view.Itinerary.Duration,
		Days:      view.Itinerary.Duration + 1,
		Options:   buildOptionViews(view, options),
		Policies:  policyBlocks(pol),
		ThankYou:  formatPolicyText(pol.ThankYou),
	}
}

func buildOptionViews(view domain.QuotationView, options []string) []optionView {
	out := make([]optionView, 0, len(options))
	for _, key := range options {
		lines, ok := view.HotelOptions[key]
		if !ok {
			continue
		}
		ov := optionView{
			Number: key,
			Total:  FormatINR(view.Totals[key].FinalClientPrice),
		}
		for _, h := range lines {
			hv := hotelView{
				Day:      h.Day,
				Name:     h.HotelName,
				Stars:    h.CategoryStars,
				Room:     h.Room,
				MealPlan: h.MealPlan,
				Image:    h.Image,
				CheckIn:  h.CheckIn,
				CheckOut: h.CheckOut,
			}
			if h.Price > 0 {
				hv.HasPrice = true
				hv.Price = FormatINR(h.Price)
			}
			ov.Hotels = append(ov.Hotels, hv)
		}
		out = append(out, ov)
	}
	return out
}

var emailTmpl = template.Must(template.New("email").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; }
.header { background: {{.Skin.HeaderBg}}; color: {{.Skin.HeaderColor}}; padding: 30px; text-align: center; }
.header h1 { margin: 0; font-size: 32px; }
.content { padding: 30px; max-width: 800px; margin: 0 auto; }
.itinerary-image { width: 100%; max-width: 600px; height: 300px; object-fit: cover; border-radius: {{.Skin.CornerRadius}}; margin: 20px auto; display: block; }
.quote-details { background: #f8f9fa; padding: 20px; border-radius: {{.Skin.CornerRadius}}; margin: 20px 0; }
.option-section { border: 2px solid {{.Skin.AccentColor}}; border-radius: {{.Skin.CornerRadius}}; padding: 25px; margin: 30px 0; background: white; box-shadow: {{.Skin.CardShadow}}; }
.option-header { background: {{.Skin.OptionHeaderBg}}; color: {{.Skin.OptionHeaderColor}}; padding: 15px; border-radius: {{.Skin.CornerRadius}}; margin-bottom: 20px; }
.hotel-card { background: {{.Skin.HotelCardBg}}; padding: 15px; border-radius: {{.Skin.CornerRadius}}; margin: 15px 0; border-left: 4px solid {{.Skin.AccentColor}}; }
.hotel-image { width: 120px; height: 120px; object-fit: cover; border-radius: {{.Skin.CornerRadius}}; float: left; margin-right: 15px; }
.price-box { background: {{.Skin.PriceBoxBg}}; color: white; padding: 20px; text-align: center; border-radius: {{.Skin.CornerRadius}}; margin: 20px 0; font-size: 24px; font-weight: bold; }
.policy-section { background: #f8f9fa; padding: 20px; border-radius: {{.Skin.CornerRadius}}; margin-top: 20px; border: 2px solid {{.Skin.AccentColor}}; }
.footer { background: {{.Skin.FooterBg}}; color: {{.Skin.FooterColor}}; padding: 20px; text-align: center; }
table { width: 100%; border-collapse: collapse; margin: 15px 0; }
td { padding: 8px; border-bottom: 1px solid #e5e7eb; }
.label { font-weight: bold; color: #4b5563; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Company.Name}}</h1>
<p>{{.Company.Line}}</p>
</div>
<div class="content">
<h2 style="color: {{.Skin.AccentColor}}; font-size: 28px;">Travel Quotation</h2>
{{if .Itinerary.Image}}<img src="{{.Itinerary.Image}}" alt="{{.Itinerary.Name}}" class="itinerary-image" />{{end}}
<div class="quote-details">
<h3 style="margin-top: 0;">Quote Details</h3>
<table>
<tr><td class="label">Query ID:</td><td>{{.QueryID}}</td></tr>
<tr><td class="label">Destination:</td><td>{{if .Itinerary.Destination}}{{.Itinerary.Destination}}{{else}}N/A{{end}}</td></tr>
<tr><td class="label">Duration:</td><td>{{.Nights}} Nights &amp; {{.Days}} Days</td></tr>
<tr><td class="label">Adults:</td><td>{{.Adults}}</td></tr>
<tr><td class="label">Children:</td><td>{{.Children}}</td></tr>
</table>
</div>
{{range .Options}}
<div class="option-section">
<div class="option-header"><h2 style="margin: 0; font-size: 24px;">Option {{.Number}}</h2></div>
<h3 style="color: {{$.Skin.AccentColor}};">Hotels Included:</h3>
{{range .Hotels}}
<div class="hotel-card">
{{if .Image}}<img src="{{.Image}}" alt="{{.Name}}" class="hotel-image" />{{end}}
<div{{if .Image}} style="margin-left: 135px;"{{end}}>
<h4 style="margin-top: 0; color: {{$.Skin.AccentColor}}; font-size: 18px;">Day {{.Day}}: {{if .Name}}{{.Name}}{{else}}Hotel{{end}}</h4>
<p><strong>Category:</strong> {{if .Stars}}{{.Stars}} Star{{else}}N/A{{end}}</p>
<p><strong>Room:</strong> {{if .Room}}{{.Room}}{{else}}N/A{{end}}</p>
<p><strong>Meal Plan:</strong> {{if .MealPlan}}{{.MealPlan}}{{else}}N/A{{end}}</p>
{{if .CheckIn}}<p><strong>Check-in:</strong> {{.CheckIn}}</p>{{end}}
{{if .CheckOut}}<p><strong>Check-out:</strong> {{.CheckOut}}</p>{{end}}
{{if .HasPrice}}<p><strong>Price:</strong> {{.Price}}</p>{{end}}
</div>
<div style="clear: both;"></div>
</div>
{{end}}
<div class="price-box">Total Package Price: {{.Total}}</div>
</div>
{{end}}
{{range .Policies}}
<div class="policy-section">
<h4 style="margin: 0 0 12px 0; font-size: 18px; color: {{$.Skin.AccentColor}}; font-weight: bold;">{{.Title}}</h4>
<div style="color: #555; line-height: 1.7; font-size: 14px;">{{.Body}}</div>
</div>
{{end}}
{{if .ThankYou}}
<div class="policy-section">
<div style="color: #555; line-height: 1.8; font-size: 14px;">{{.ThankYou}}</div>
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
