package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/LeonardoBeccarini/agrisense/internal/model"
)

// ErrNotFound è restituito (wrappato) quando la riga richiesta non esiste.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database holding users, farms, analyses, insights
// and the imported market price history.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS farms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users (id),
	name TEXT NOT NULL,
	location TEXT NOT NULL,
	area_hectares REAL NOT NULL,
	crop_type TEXT NOT NULL DEFAULT '',
	soil_type TEXT NOT NULL DEFAULT '',
	irrigation_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS farm_analyses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	farm_id INTEGER NOT NULL REFERENCES farms (id) ON DELETE CASCADE,
	analysis_type TEXT NOT NULL,
	temperature REAL NOT NULL DEFAULT 0,
	humidity REAL NOT NULL DEFAULT 0,
	ph REAL NOT NULL DEFAULT 0,
	rainfall REAL NOT NULL DEFAULT 0,
	nitrogen REAL NOT NULL DEFAULT 0,
	phosphorus REAL NOT NULL DEFAULT 0,
	potassium REAL NOT NULL DEFAULT 0,
	fertilizer_used REAL NOT NULL DEFAULT 0,
	pesticide_used REAL NOT NULL DEFAULT 0,
	season TEXT NOT NULL DEFAULT '',
	region TEXT NOT NULL DEFAULT '',
	predicted_yield REAL NOT NULL DEFAULT 0,
	predicted_revenue REAL NOT NULL DEFAULT 0,
	efficiency_score REAL NOT NULL DEFAULT 0,
	recommendations TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS market_prices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	crop TEXT NOT NULL,
	price_per_ton REAL NOT NULL,
	date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (crop, date)
);

CREATE TABLE IF NOT EXISTS insights (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	farm_id INTEGER NOT NULL REFERENCES farms (id) ON DELETE CASCADE,
	insight_type TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	impact_level TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_farm ON farm_analyses(farm_id);
CREATE INDEX IF NOT EXISTS idx_insights_farm ON insights(farm_id);
CREATE INDEX IF NOT EXISTS idx_prices_crop ON market_prices(crop, date);
`

// OpenStore opens (or creates) the SQLite database at path and applies the schema.
func OpenStore(path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// sqlite: un solo writer alla volta
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) stamp() string { return s.now().UTC().Format(time.RFC3339) }

// --- users ---

var defaultUser = model.User{
	Name:     "Ahmed Mohamed",
	Email:    "ahmed@farmtech.com",
	Phone:    "+20 123 456 7890",
	Location: "Nile Delta, Egypt",
}

// EnsureDefaultUser crea l'utente di default se manca e lo restituisce.
func (s *Store) EnsureDefaultUser(ctx context.Context) (model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (name, email, phone, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		defaultUser.Name, defaultUser.Email, defaultUser.Phone, defaultUser.Location, s.stamp())
	if err != nil {
		return model.User{}, fmt.Errorf("ensure default user: %w", err)
	}
	var u model.User
	if err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = ?`, defaultUser.Email); err != nil {
		return model.User{}, fmt.Errorf("ensure default user: %w", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = s.stamp()
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (name, email, phone, location, created_at)
		 VALUES (:name, :email, :phone, :location, :created_at)`, u)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return u, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return u, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// --- farms ---

const farmSelect = `
SELECT f.id, f.user_id, f.name, f.location, f.area_hectares, f.crop_type, f.soil_type,
       f.irrigation_type, f.status, f.created_at, f.updated_at, COALESCE(u.name, '') AS owner_name
FROM farms f
LEFT JOIN users u ON f.user_id = u.id`

func (s *Store) CreateFarm(ctx context.Context, f *model.Farm) error {
	if f.Status == "" {
		f.Status = model.FarmActive
	}
	f.CreatedAt = s.stamp()
	f.UpdatedAt = f.CreatedAt
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO farms (user_id, name, location, area_hectares, crop_type, soil_type, irrigation_type, status, created_at, updated_at)
		 VALUES (:user_id, :name, :location, :area_hectares, :crop_type, :soil_type, :irrigation_type, :status, :created_at, :updated_at)`, f)
	if err != nil {
		return fmt.Errorf("create farm: %w", err)
	}
	f.ID, err = res.LastInsertId()
	return err
}

// ListFarms returns every farm with its owner's name, newest first.
func (s *Store) ListFarms(ctx context.Context) ([]model.Farm, error) {
	farms := []model.Farm{}
	if err := s.db.SelectContext(ctx, &farms, farmSelect+` ORDER BY f.created_at DESC, f.id DESC`); err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	return farms, nil
}

func (s *Store) GetFarm(ctx context.Context, id int64) (model.Farm, error) {
	var f model.Farm
	err := s.db.GetContext(ctx, &f, farmSelect+` WHERE f.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return f, fmt.Errorf("farm %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return f, fmt.Errorf("get farm %d: %w", id, err)
	}
	return f, nil
}

// UpdateFarm sovrascrive i campi modificabili della farm f.ID.
func (s *Store) UpdateFarm(ctx context.Context, f *model.Farm) error {
	if f.Status == "" {
		f.Status = model.FarmActive
	}
	f.UpdatedAt = s.stamp()
	res, err := s.db.NamedExecContext(ctx,
		`UPDATE farms SET name = :name, location = :location, area_hectares = :area_hectares,
		        crop_type = :crop_type, soil_type = :soil_type, irrigation_type = :irrigation_type,
		        status = :status, updated_at = :updated_at
		 WHERE id = :id`, f)
	if err != nil {
		return fmt.Errorf("update farm %d: %w", f.ID, err)
	}
	return expectRow(res, "farm", f.ID)
}

func (s *Store) DeleteFarm(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM farms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete farm %d: %w", id, err)
	}
	return expectRow(res, "farm", id)
}

func expectRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

// --- analyses & insights ---

func (s *Store) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if strings.TrimSpace(a.Recommendations) == "" {
		a.Recommendations = "[]"
	}
	a.CreatedAt = s.stamp()
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO farm_analyses (
			farm_id, analysis_type, temperature, humidity, ph, rainfall, nitrogen, phosphorus, potassium,
			fertilizer_used, pesticide_used, season, region, predicted_yield, predicted_revenue,
			efficiency_score, recommendations, created_at)
		 VALUES (
			:farm_id, :analysis_type, :temperature, :humidity, :ph, :rainfall, :nitrogen, :phosphorus, :potassium,
			:fertilizer_used, :pesticide_used, :season, :region, :predicted_yield, :predicted_revenue,
			:efficiency_score, :recommendations, :created_at)`, a)
	if err != nil {
		return fmt.Errorf("save analysis for farm %d: %w", a.FarmID, err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// FarmAnalyses returns the farm's analyses, newest first.
func (s *Store) FarmAnalyses(ctx context.Context, farmID int64) ([]model.Analysis, error) {
	out := []model.Analysis{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM farm_analyses WHERE farm_id = ? ORDER BY created_at DESC, id DESC`, farmID)
	if err != nil {
		return nil, fmt.Errorf("farm %d analyses: %w", farmID, err)
	}
	return out, nil
}

func (s *Store) AddInsight(ctx context.Context, in *model.Insight) error {
	if in.Status == "" {
		in.Status = "pending"
	}
	in.CreatedAt = s.stamp()
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO insights (farm_id, insight_type, title, description, impact_level, status, created_at)
		 VALUES (:farm_id, :insight_type, :title, :description, :impact_level, :status, :created_at)`, in)
	if err != nil {
		return fmt.Errorf("add insight for farm %d: %w", in.FarmID, err)
	}
	in.ID, err = res.LastInsertId()
	return err
}

func (s *Store) FarmInsights(ctx context.Context, farmID int64) ([]model.Insight, error) {
	out := []model.Insight{}
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM insights WHERE farm_id = ? ORDER BY created_at DESC, id DESC`, farmID)
	if err != nil {
		return nil, fmt.Errorf("farm %d insights: %w", farmID, err)
	}
	return out, nil
}

// --- market prices ---

// ImportMarketPrices upserts points keyed by (crop, date) in one transaction.
func (s *Store) ImportMarketPrices(ctx context.Context, points []model.PricePoint) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import prices: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR REPLACE INTO market_prices (crop, price_per_ton, date, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("import prices: %w", err)
	}
	defer stmt.Close()

	now := s.stamp()
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, strings.TrimSpace(p.Crop), p.PricePerTon, p.Date, now); err != nil {
			return 0, fmt.Errorf("import price %s@%s: %w", p.Crop, p.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import prices: %w", err)
	}
	return len(points), nil
}

// MarketPrices returns stored prices, newest date first. With no crops it
// returns every crop; otherwise only rows whose crop label is one of crops.
func (s *Store) MarketPrices(ctx context.Context, crops ...string) ([]model.PricePoint, error) {
	out := []model.PricePoint{}
	q := `SELECT crop, price_per_ton, date FROM market_prices`
	var args []any
	if len(crops) > 0 {
		in, inArgs, err := sqlx.In(` WHERE crop IN (?)`, crops)
		if err != nil {
			return nil, fmt.Errorf("market prices: %w", err)
		}
		q += in
		args = inArgs
	}
	q += ` ORDER BY date DESC, crop`
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	return out, nil
}
