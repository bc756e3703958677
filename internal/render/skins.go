package render

import "html/template"

// Skin IDs persisted under the selected_email_skin setting.
const (
	SkinClassic    = "classic"
	SkinPremium3D  = "premium-3d"
	SkinFloating3D = "floating-3d"
	SkinLayered3D  = "layered-3d"
	SkinAdventure  = "adventure"
	SkinBeach      = "beach"
	SkinElegant    = "elegant"
)

// Skin is the visual descriptor feeding the one shared email layout:
// colors, gradients and shape tokens, no per-skin markup.
type Skin struct {
	ID                string
	HeaderBg          template.CSS
	HeaderColor       template.CSS
	AccentColor       template.CSS
	OptionHeaderBg    template.CSS
	OptionHeaderColor template.CSS
	HotelCardBg       template.CSS
	PriceBoxBg        template.CSS
	FooterBg          template.CSS
	FooterColor       template.CSS
	CornerRadius      template.CSS
	CardShadow        template.CSS
}

var skins = map[string]Skin{
	SkinClassic: {
		ID:                SkinClassic,
		HeaderBg:          "linear-gradient(135deg, #2563eb 0%, #1e40af 100%)",
		HeaderColor:       "#ffffff",
		AccentColor:       "#2563eb",
		OptionHeaderBg:    "#2563eb",
		OptionHeaderColor: "#ffffff",
		HotelCardBg:       "#f0f9ff",
		PriceBoxBg:        "#dc2626",
		FooterBg:          "#1f2937",
		FooterColor:       "#ffffff",
		CornerRadius:      "8px",
		CardShadow:        "0 2px 8px rgba(0,0,0,0.1)",
	},
	SkinPremium3D: {
		ID:                SkinPremium3D,
		HeaderBg:          "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		HeaderColor:       "#ffffff",
		AccentColor:       "#667eea",
		OptionHeaderBg:    "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		OptionHeaderColor: "#ffffff",
		HotelCardBg:       "linear-gradient(135deg, #f5f7fa 0%, #c3cfe2 100%)",
		PriceBoxBg:        "#8b5cf6",
		FooterBg:          "#4b5563",
		FooterColor:       "#ffffff",
		CornerRadius:      "20px",
		CardShadow:        "0 20px 60px rgba(0,0,0,0.3)",
	},
	SkinFloating3D: {
		ID:                SkinFloating3D,
		HeaderBg:          "linear-gradient(135deg, #30cfd0 0%, #330867 100%)",
		HeaderColor:       "#ffffff",
		AccentColor:       "#30cfd0",
		OptionHeaderBg:    "linear-gradient(135deg, #30cfd0 0%, #330867 100%)",
		OptionHeaderColor: "#ffffff",
		HotelCardBg:       "#f5f7fa",
		PriceBoxBg:        "#330867",
		FooterBg:          "#1f2937",
		FooterColor:       "#ffffff",
		CornerRadius:      "25px",
		CardShadow:        "0 25px 50px rgba(0,0,0,0.25)",
	},
	SkinLayered3D: {
		ID:                SkinLayered3D,
		HeaderBg:          "linear-gradient(135deg, #a8edea 0%, #fed6e3 100%)",
		HeaderColor:       "#1f2937",
		AccentColor:       "#ec4899",
		OptionHeaderBg:    "#ec4899",
		OptionHeaderColor: "#ffffff",
		HotelCardBg:       "#fdf2f8",
		PriceBoxBg:        "#db2777",
		FooterBg:          "#4b5563",
		FooterColor:       "#ffffff",
		CornerRadius:      "16px",
		CardShadow:        "0 15px 35px rgba(0,0,0,0.2)",
	},
	SkinAdventure: {
		ID:                SkinAdventure,
		HeaderBg:          "linear-gradient(135deg, #134e5e 0%, #71b280 100%)",
		HeaderColor:       "#ffffff",
		AccentColor:       "#16a34a",
		OptionHeaderBg:    "#16a34a",
		OptionHeaderColor: "#ffffff",
		HotelCardBg:       "#f0fdf4",
		PriceBoxBg:        "#15803d",
		FooterBg:          "#14532d",
		FooterColor:       "#ffffff",
		CornerRadius:      "10px",
		CardShadow:        "0 4px 12px rgba(0,0,0,0.15)",
	},
	SkinBeach: {
		ID:                SkinBeach,
		HeaderBg:          "#ffffff",
		HeaderColor:       "#1f2937",
		AccentColor:       "#059669",
		OptionHeaderBg:    "#f9fafb",
		OptionHeaderColor: "#1f2937",
		HotelCardBg:       "#ffffff",
		PriceBoxBg:        "#059669",
		FooterBg:          "#f9fafb",
		FooterColor:       "#6b7280",
		CornerRadius:      "12px",
		CardShadow:        "0 1px 4px rgba(0,0,0,0.08)",
	},
	SkinElegant: {
		ID:                SkinElegant,
		HeaderBg:          "#111827",
		HeaderColor:       "#fbbf24",
		AccentColor:       "#b45309",
		OptionHeaderBg:    "#111827",
		OptionHeaderColor: "#fbbf24",
		HotelCardBg:       "#fffbeb",
		PriceBoxBg:        "#b45309",
		FooterBg:          "#111827",
		FooterColor:       "#fbbf24",
		CornerRadius:      "4px",
		CardShadow:        "0 3px 10px rgba(0,0,0,0.12)",
	},
}

// SkinByID returns the descriptor for id, falling back to classic for
// an unknown or empty id.
func SkinByID(id string) Skin {
	if s, ok := skins[id]; ok {
		return s
	}
	return skins[SkinClassic]
}

// ValidSkinID reports whether id names a known skin.
func ValidSkinID(id string) bool {
	_, ok := skins[id]
	return ok
}

// SkinIDs lists the selectable skins in a stable order.
func SkinIDs() []string {
	return []string{SkinClassic, SkinPremium3D, SkinFloating3D, SkinLayered3D, SkinAdventure, SkinBeach, SkinElegant}
}
