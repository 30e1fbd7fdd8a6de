package warehouse

import (
	"time"

	"github.com/uptrace/bun"
)

type Shipment struct {
	bun.BaseModel `bun:"table:shipments"`

	ID              int64     `bun:"id,pk" json:"id"`
	Origin          string    `bun:"origin" json:"origin"`
	Destination     string    `bun:"destination" json:"destination"`
	Status          string    `bun:"status" json:"status"`
	Priority        string    `bun:"priority" json:"priority"`
	Cost            float64   `bun:"cost" json:"-"`
	Revenue         float64   `bun:"revenue" json:"-"`
	WeightKg        float64   `bun:"weight_kg" json:"weight_kg"`
	CargoType       string    `bun:"cargo_type" json:"cargo_type"`
	CustomerName    string    `bun:"customer_name" json:"customer_name"`
	DeliveryDate    time.Time `bun:"delivery_date" json:"delivery_date"`
	InsuranceStatus bool      `bun:"insurance_status" json:"insurance_status"`
}

type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles"`

	VehicleID       int64   `bun:"vehicle_id,pk" json:"vehicle_id"`
	Type            string  `bun:"type" json:"type"`
	CapacityKg      int64   `bun:"capacity_kg" json:"capacity_kg"`
	Status          string  `bun:"status" json:"status"`
	FuelLevel       float64 `bun:"fuel_level" json:"fuel_level"`
	LastServiceDate string  `bun:"last_service_date" json:"last_service_date"`
	MileageKm       float64 `bun:"mileage_km" json:"mileage_km"`
	CurrentLoadKg   float64 `bun:"current_load_kg" json:"current_load_kg"`
	GPSCoordinates  string  `bun:"gps_coordinates" json:"gps_coordinates"`
}

type Driver struct {
	bun.BaseModel `bun:"table:drivers"`

	ID              int64   `bun:"id,pk" json:"id"`
	Name            string  `bun:"name" json:"name"`
	LicenseNumber   string  `bun:"license_number" json:"license_number"`
	Status          string  `bun:"status" json:"status"`
	Rating          float64 `bun:"rating" json:"rating"`
	ExperienceYears int64   `bun:"experience_years" json:"experience_years"`
	CurrentLocation string  `bun:"current_location" json:"current_location"`
	ContactNumber   string  `bun:"contact_number" json:"contact_number"`
	Salary          float64 `bun:"salary" json:"-"`
}

// SampleSet is the bounded preview served to the UI. It is role-agnostic, so
// financial columns are neither loaded nor serialized.
type SampleSet struct {
	Shipments []Shipment `json:"shipments"`
	Vehicles  []Vehicle  `json:"vehicles"`
	Drivers   []Driver   `json:"drivers"`
}

func models() []any {
	return []any{(*Shipment)(nil), (*Vehicle)(nil), (*Driver)(nil)}
}
