// Package i18n negotiates the console language and looks up UI labels.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

var (
	supported = []language.Tag{language.French, language.English, language.Arabic}
	codes     = []string{"fr", "en", "ar"}
	matcher   = language.NewMatcher(supported)
)

// Negotiate picks fr, en or ar from an explicit choice and an Accept-Language header.
// French is the default.
func Negotiate(explicit, acceptLanguage string) string {
	var tags []language.Tag
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if t, err := language.Parse(explicit); err == nil {
			tags = append(tags, t)
		}
	}
	if parsed, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return codes[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(codes) {
		return codes[0]
	}
	return codes[idx]
}

// Dir is the text direction of lang.
func Dir(lang string) string {
	if lang == "ar" {
		return "rtl"
	}
	return "ltr"
}

// Translator returns a lookup bound to lang. Unknown keys fall back to French, then the key.
func Translator(lang string) func(string) string {
	table := catalog[lang]
	return func(key string) string {
		if v, ok := table[key]; ok {
			return v
		}
		if v, ok := catalog["fr"][key]; ok {
			return v
		}
		return key
	}
}

var catalog = map[string]map[string]string{
	"fr": {
		"code":                   "Code",
		"coordinates":            "Coordonnées",
		"place":                  "Lieu",
		"elevation":              "Altitude",
		"type":                   "Type",
		"vendor":                 "Fournisseur",
		"description":            "Description",
		"status":                 "État",
		"kind.station":           "Station",
		"kind.terminal":          "Terminal",
		"kind.hydrocarbon_field": "Gisement",
		"kind.pipeline":          "Pipeline",
		"status.operational":     "Opérationnel",
		"status.maintenance":     "En maintenance",
		"status.offline":         "Hors service",
		"status.unknown":         "Inconnu",
		"panel.loading":          "Chargement de la carte…",
		"panel.error":            "Impossible de charger les données de la carte",
		"panel.no_data_object":   "Aucune donnée reçue",
		"panel.no_data":          "Aucune infrastructure à afficher",
		"panel.layer_failed":     "Couche indisponible",
		"tiles.online":           "En ligne",
		"tiles.offline":          "Hors ligne",
		"legend.kinds":           "Infrastructures",
		"legend.statuses":        "États",
		"filters.title":          "Couches",
		"tiles.auto_offline":     "Tuiles hors ligne automatiques",
		"map.refresh":            "Actualiser",
		"tiles.title":            "Fond de carte",
	},
	"en": {
		"code":                   "Code",
		"coordinates":            "Coordinates",
		"place":                  "Place",
		"elevation":              "Elevation",
		"type":                   "Type",
		"vendor":                 "Vendor",
		"description":            "Description",
		"status":                 "Status",
		"kind.station":           "Station",
		"kind.terminal":          "Terminal",
		"kind.hydrocarbon_field": "Hydrocarbon field",
		"kind.pipeline":          "Pipeline",
		"status.operational":     "Operational",
		"status.maintenance":     "Under maintenance",
		"status.offline":         "Offline",
		"status.unknown":         "Unknown",
		"panel.loading":          "Loading map…",
		"panel.error":            "Could not load map data",
		"panel.no_data_object":   "No data received",
		"panel.no_data":          "No infrastructure to display",
		"panel.layer_failed":     "Layer unavailable",
		"tiles.online":           "Online",
		"tiles.offline":          "Offline",
		"legend.kinds":           "Infrastructure",
		"legend.statuses":        "Statuses",
		"filters.title":          "Layers",
		"tiles.auto_offline":     "Automatic offline tiles",
		"map.refresh":            "Refresh",
		"tiles.title":            "Base map",
	},
	"ar": {
		"code":                   "الرمز",
		"coordinates":            "الإحداثيات",
		"place":                  "المكان",
		"elevation":              "الارتفاع",
		"type":                   "النوع",
		"vendor":                 "المورد",
		"description":            "الوصف",
		"status":                 "الحالة",
		"kind.station":           "محطة",
		"kind.terminal":          "محطة طرفية",
		"kind.hydrocarbon_field": "حقل محروقات",
		"kind.pipeline":          "أنبوب",
		"status.operational":     "قيد التشغيل",
		"status.maintenance":     "قيد الصيانة",
		"status.offline":         "خارج الخدمة",
		"status.unknown":         "غير معروف",
		"panel.loading":          "جار تحميل الخريطة…",
		"panel.error":            "تعذر تحميل بيانات الخريطة",
		"panel.no_data_object":   "لم يتم استلام أي بيانات",
		"panel.no_data":          "لا توجد منشآت للعرض",
		"panel.layer_failed":     "الطبقة غير متاحة",
		"tiles.online":           "متصل",
		"tiles.offline":          "غير متصل",
		"legend.kinds":           "المنشآت",
		"legend.statuses":        "الحالات",
		"filters.title":          "الطبقات",
		"tiles.auto_offline":     "خرائط دون اتصال تلقائيًا",
		"map.refresh":            "تحديث",
		"tiles.title":            "الخريطة الأساسية",
	},
}
