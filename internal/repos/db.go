package repos

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"grocerly/internal/config"
	applog "grocerly/internal/log"
)

// OpenDB opens the pool, applies the schema and seeds the demo catalog.
func OpenDB(cfg config.DB) (*sqlx.DB, error) {
	dsn := cfg.DSN
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !memory && !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		// Every new connection to :memory: is a fresh database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedProducts(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users & tokens
CREATE TABLE IF NOT EXISTS users(
  user_id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  contact_number TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  address TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email   ON users(LOWER(email));
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_contact ON users(contact_number);

CREATE TABLE IF NOT EXISTS tokens(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  username TEXT,
  access_token TEXT NOT NULL UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tokens_user ON tokens(user_id);

-- Catalog
CREATE TABLE IF NOT EXISTS home_page_products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  quantity TEXT NOT NULL,
  price NUMERIC NOT NULL CHECK (price >= 0),
  images TEXT,
  details TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_category ON home_page_products(category);
CREATE INDEX IF NOT EXISTS idx_products_name     ON home_page_products(name);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  order_id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(user_id),
  order_number TEXT NOT NULL UNIQUE,
  item_total NUMERIC NOT NULL,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'confirmed'
    CHECK (status IN ('confirmed','preparing','out_for_delivery','delivered','cancelled')),
  delivery_address TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL DEFAULT '',
  customer_email TEXT NOT NULL DEFAULT '',
  customer_contact TEXT NOT NULL DEFAULT '',
  cancellation_fee NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);

CREATE TABLE IF NOT EXISTS order_items(
  item_id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL,
  product_name TEXT NOT NULL,
  product_quantity TEXT NOT NULL DEFAULT '',
  product_price NUMERIC NOT NULL,
  cart_quantity INTEGER NOT NULL CHECK (cart_quantity >= 1),
  item_total NUMERIC NOT NULL,
  product_images TEXT
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedProducts fills an empty catalog with a handful of products per category.
func seedProducts(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM home_page_products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Info(nil, "seed.products", nil)

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO home_page_products(name,category,quantity,price,images,details) VALUES
	  ('Amul Taaza Toned Milk','dairy','500 ml',27,'["prod_milk_1.jpg","prod_milk_2.jpg"]','Pasteurised toned milk'),
	  ('Amul Masti Dahi','dairy','400 g',35,'["prod_dahi_1.jpg"]','Fresh curd'),
	  ('Amul Butter','dairy','100 g',58,'["prod_butter_1.jpg"]','Pasteurised butter'),
	  ('Gold Flake Kings','tobacco','10 pcs',180,'["prod_goldflake_1.jpg"]',NULL),
	  ('Lays Classic Salted','snacks','52 g',20,'["prod_lays_1.jpg"]','Potato chips'),
	  ('Kurkure Masala Munch','snacks','90 g',20,'["prod_kurkure_1.jpg"]',NULL),
	  ('Pass Pass Pulse','mouth_freshners','1 pack',10,'["prod_passpass_1.jpg"]',NULL),
	  ('Coca-Cola','cold_drink','750 ml',40,'["prod_coke_1.jpg"]','Soft drink'),
	  ('Thums Up','cold_drink','750 ml',40,'["prod_thumsup_1.jpg"]',NULL),
	  ('Pulse Kachcha Aam','candies','1 pc',1,'["prod_pulse_1.jpg"]',NULL)`)
	return tx.Commit()
}
