package model

import "slices"

// Sectors that can file requests.
var Sectors = []string{
	"Bovina",
	"Mantenimiento",
	"Administrativa",
	"Porcina",
	"Avícola",
}

// Categories offered for elements.
var Categories = []string{
	"Accesorio de plomería",
	"Material de construcción",
	"Accesorio eléctrico",
	"Herramienta de pintura",
	"Material eléctrico",
	"Accesorio de seguridad",
	"Accesorio de fijación",
	"Material de señalización",
	"Material de limpieza",
	"Herramienta/Abrasión",
	"Material de soldadura",
	"Accesorio de jardinería",
	"Herramienta de corte",
	"Material de pintura",
	"Herramienta de medición",
	"Herramienta de construcción",
	"Accesorio de hogar",
}

// ElementTypes offered for elements.
var ElementTypes = []string{
	"Consumible",
	"No Consumible",
	"Herramienta Manual",
	"Herramienta Eléctrica",
	"Equipo de Medición",
	"Equipo de Seguridad",
	"Material de Construcción",
	"Material Eléctrico",
	"Otro",
}

// Units of measure.
var Units = []string{
	"Unidad",
	"Par",
	"Metro",
	"Metro Cuadrado",
	"Metro Cúbico",
	"Kilogramo",
	"Litro",
	"Galón",
	"Rollo",
	"Caja",
	"Paquete",
	"Otro",
}

// ValidSector reports whether s is one of Sectors.
func ValidSector(s string) bool {
	return slices.Contains(Sectors, s)
}
