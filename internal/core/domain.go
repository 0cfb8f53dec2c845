package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Expense categories form a closed set.
const (
	CategoryFuel           ExpenseCategory = "fuel"
	CategoryCharging       ExpenseCategory = "charging"
	CategoryMaintenance    ExpenseCategory = "maintenance"
	CategoryInsurance      ExpenseCategory = "insurance"
	CategoryParking        ExpenseCategory = "parking"
	CategoryTolls          ExpenseCategory = "tolls"
	CategoryPhone          ExpenseCategory = "phone"
	CategoryFood           ExpenseCategory = "food"
	CategoryCarWash        ExpenseCategory = "car_wash"
	CategoryVehiclePayment ExpenseCategory = "vehicle_payment"
	CategorySubscription   ExpenseCategory = "subscription"
	CategoryTaxes          ExpenseCategory = "taxes"
	CategoryOther          ExpenseCategory = "other"
)

const (
	MaintenanceOilChange  MaintenanceType = "oil_change"
	MaintenanceTires      MaintenanceType = "tires"
	MaintenanceBrakes     MaintenanceType = "brakes"
	MaintenanceBattery    MaintenanceType = "battery"
	MaintenanceInspection MaintenanceType = "inspection"
	MaintenanceRepair     MaintenanceType = "repair"
	MaintenanceCleaning   MaintenanceType = "cleaning"
	MaintenanceOther      MaintenanceType = "other"
)

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleScooter    VehicleType = "scooter"
	VehicleBicycle    VehicleType = "bicycle"
	VehicleVan        VehicleType = "van"
)

const (
	FuelGasoline FuelType = "gasoline"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
	FuelNone     FuelType = "none"
)

type (
	Role            string
	ExpenseCategory string
	MaintenanceType string
	VehicleType     string
	FuelType        string

	// Date is a calendar day in UTC. The time-of-day part is always zero.
	Date struct {
		time.Time
	}

	User struct {
		ID       string
		Name     string
		Email    string
		Role     Role
		Currency string // display currency of record
	}

	Session struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
	}

	Platform struct {
		ID       string
		UserID   string
		Name     string
		IsActive bool
	}

	Income struct {
		ID          string
		UserID      string
		PlatformID  *string
		Amount      decimal.Decimal
		Currency    string
		Date        Date
		Description *string
	}

	Expense struct {
		ID          string
		UserID      string
		Category    ExpenseCategory
		Amount      decimal.Decimal
		Currency    string
		Date        Date
		Description *string
	}

	Vehicle struct {
		ID       string
		UserID   string
		Name     string
		Type     VehicleType
		FuelType FuelType
		IsActive bool
	}

	UsageLog struct {
		ID         string
		VehicleID  string
		Date       Date
		DistanceKm decimal.Decimal
		FuelLiters *decimal.Decimal
		EnergyKwh  *decimal.Decimal
		Notes      string
	}

	Maintenance struct {
		ID        string
		VehicleID string
		Date      Date
		Type      MaintenanceType
		Cost      *decimal.Decimal
		Currency  string
		Mileage   *int64
		Notes     string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
	ErrInvalidCategory = errors.New("unknown expense category")
	ErrInvalidDistance = errors.New("distance must be positive")
	ErrMissingOwner    = errors.New("missing owner id")
)

var expenseCategories = []ExpenseCategory{
	CategoryFuel, CategoryCharging, CategoryMaintenance, CategoryInsurance,
	CategoryParking, CategoryTolls, CategoryPhone, CategoryFood, CategoryCarWash,
	CategoryVehiclePayment, CategorySubscription, CategoryTaxes, CategoryOther,
}

var maintenanceTypes = []MaintenanceType{
	MaintenanceOilChange, MaintenanceTires, MaintenanceBrakes, MaintenanceBattery,
	MaintenanceInspection, MaintenanceRepair, MaintenanceCleaning, MaintenanceOther,
}

// ExpenseCategories returns the closed set of expense categories.
func ExpenseCategories() []ExpenseCategory {
	return append([]ExpenseCategory(nil), expenseCategories...)
}

// MaintenanceTypes returns the closed set of maintenance types.
func MaintenanceTypes() []MaintenanceType {
	return append([]MaintenanceType(nil), maintenanceTypes...)
}

func (c ExpenseCategory) IsValid() bool {
	for _, known := range expenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (t MaintenanceType) IsValid() bool {
	for _, known := range maintenanceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC3339 timestamp, keeping only the day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date belongs to.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// IsEmpty returns true if the date is zero (optional bounds)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Within reports whether d falls in [from, to]; empty bounds are open.
func (d Date) Within(from, to Date) bool {
	if !from.IsEmpty() && d.Before(from.Time) {
		return false
	}
	if !to.IsEmpty() && d.After(to.Time) {
		return false
	}
	return true
}

// ValidCurrency reports whether code looks like an ISO 4217 code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return ErrMissingOwner
	}
	if i.Date.IsEmpty() {
		return errors.New("date cannot be zero")
	}
	if i.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !ValidCurrency(i.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrMissingOwner
	}
	if e.Date.IsEmpty() {
		return errors.New("date cannot be zero")
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !ValidCurrency(e.Currency) {
		return ErrInvalidCurrency
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}

func (u UsageLog) Validate() error {
	if strings.TrimSpace(u.VehicleID) == "" {
		return ErrMissingOwner
	}
	if u.Date.IsEmpty() {
		return errors.New("date cannot be zero")
	}
	if !u.DistanceKm.IsPositive() {
		return ErrInvalidDistance
	}
	if u.FuelLiters != nil && u.FuelLiters.IsNegative() {
		return errors.New("fuel liters cannot be negative")
	}
	if u.EnergyKwh != nil && u.EnergyKwh.IsNegative() {
		return errors.New("energy kWh cannot be negative")
	}
	return nil
}

func (m Maintenance) Validate() error {
	if strings.TrimSpace(m.VehicleID) == "" {
		return ErrMissingOwner
	}
	if m.Date.IsEmpty() {
		return errors.New("date cannot be zero")
	}
	if !m.Type.IsValid() {
		return errors.New("unknown maintenance type")
	}
	if m.Cost != nil && m.Cost.IsNegative() {
		return ErrInvalidAmount
	}
	if !ValidCurrency(m.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}
