package burgerapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/stellar-burgers/internal/config"
	"github.com/vasiliy-maslov/stellar-burgers/internal/model"
)

// NewPostgres connects, applies pending migrations and returns the handle.
func NewPostgres(cfg config.Postgres) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyMigrations(db, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return db, nil
}

func applyMigrations(db *sqlx.DB, migrationsPath string) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialize migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migration instance: %w", err)
	}

	err = m.Up()
	if err == migrate.ErrNoChange {
		log.Info().Msg("No new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info().Msg("New migrations applied successfully")
	return nil
}

type PostgresStorage struct {
	db *sqlx.DB
}

func NewPostgresStorage(db *sqlx.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

type accountRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	RefreshToken sql.NullString `db:"refresh_token"`
	ResetCode    sql.NullString `db:"reset_code"`
}

func (r accountRow) toAccount() Account {
	return Account{
		ID:           uuid.FromStringOrNil(r.ID),
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		RefreshToken: r.RefreshToken.String,
		ResetCode:    r.ResetCode.String,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (p *PostgresStorage) CreateAccount(ctx context.Context, acc Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, refresh_token, reset_code)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := p.db.ExecContext(ctx, query,
		acc.ID.String(), acc.Name, acc.Email, acc.PasswordHash,
		nullable(acc.RefreshToken), nullable(acc.ResetCode))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("storage: failed to create account: %w", err)
	}
	return nil
}

func (p *PostgresStorage) AccountByEmail(ctx context.Context, email string) (Account, error) {
	var row accountRow
	err := p.db.GetContext(ctx, &row, `SELECT * FROM accounts WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("storage: failed to get account by email: %w", err)
	}
	return row.toAccount(), nil
}

func (p *PostgresStorage) AccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	var row accountRow
	err := p.db.GetContext(ctx, &row, `SELECT * FROM accounts WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("storage: failed to get account by id: %w", err)
	}
	return row.toAccount(), nil
}

func (p *PostgresStorage) UpdateAccount(ctx context.Context, acc Account) error {
	query := `
		UPDATE accounts
		SET name = $2, email = $3, password_hash = $4, refresh_token = $5, reset_code = $6
		WHERE id = $1
	`
	res, err := p.db.ExecContext(ctx, query,
		acc.ID.String(), acc.Name, acc.Email, acc.PasswordHash,
		nullable(acc.RefreshToken), nullable(acc.ResetCode))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("storage: failed to update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (p *PostgresStorage) AccountByRefreshToken(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrAccountNotFound
	}
	var row accountRow
	err := p.db.GetContext(ctx, &row, `SELECT * FROM accounts WHERE refresh_token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("storage: failed to get account by refresh token: %w", err)
	}
	return row.toAccount(), nil
}

func (p *PostgresStorage) CreateResetCode(ctx context.Context, email, code string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE accounts SET reset_code = $2 WHERE email = $1`, email, code)
	if err != nil {
		return fmt.Errorf("storage: failed to store reset code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: failed to check reset code result: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (p *PostgresStorage) ConsumeResetCode(ctx context.Context, code, newPasswordHash string) error {
	if code == "" {
		return ErrResetCodeInvalid
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE accounts SET reset_code = NULL, password_hash = $2 WHERE reset_code = $1`,
		code, newPasswordHash)
	if err != nil {
		return fmt.Errorf("storage: failed to consume reset code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: failed to check reset result: %w", err)
	}
	if affected == 0 {
		return ErrResetCodeInvalid
	}
	return nil
}

type ingredientRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Type          string `db:"type"`
	Proteins      int    `db:"proteins"`
	Fat           int    `db:"fat"`
	Carbohydrates int    `db:"carbohydrates"`
	Calories      int    `db:"calories"`
	Price         int    `db:"price"`
	Image         string `db:"image"`
	ImageLarge    string `db:"image_large"`
	ImageMobile   string `db:"image_mobile"`
	Position      int    `db:"position"`
}

func (p *PostgresStorage) Ingredients(ctx context.Context) ([]model.Ingredient, error) {
	var rows []ingredientRow
	err := p.db.SelectContext(ctx, &rows, `SELECT * FROM ingredients ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list ingredients: %w", err)
	}

	ingredients := make([]model.Ingredient, 0, len(rows))
	for _, r := range rows {
		ingredients = append(ingredients, model.Ingredient{
			ID:            r.ID,
			Name:          r.Name,
			Type:          model.IngredientType(r.Type),
			Proteins:      r.Proteins,
			Fat:           r.Fat,
			Carbohydrates: r.Carbohydrates,
			Calories:      r.Calories,
			Price:         r.Price,
			Image:         r.Image,
			ImageLarge:    r.ImageLarge,
			ImageMobile:   r.ImageMobile,
		})
	}
	return ingredients, nil
}

func (p *PostgresStorage) SeedIngredients(ctx context.Context, ingredients []model.Ingredient) error {
	query := `
		INSERT INTO ingredients (id, name, type, proteins, fat, carbohydrates, calories, price, image, image_large, image_mobile, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, type = EXCLUDED.type, proteins = EXCLUDED.proteins,
		    fat = EXCLUDED.fat, carbohydrates = EXCLUDED.carbohydrates,
		    calories = EXCLUDED.calories, price = EXCLUDED.price,
		    image = EXCLUDED.image, image_large = EXCLUDED.image_large,
		    image_mobile = EXCLUDED.image_mobile, position = EXCLUDED.position
	`
	for i, ing := range ingredients {
		_, err := p.db.ExecContext(ctx, query,
			ing.ID, ing.Name, string(ing.Type), ing.Proteins, ing.Fat, ing.Carbohydrates,
			ing.Calories, ing.Price, ing.Image, ing.ImageLarge, ing.ImageMobile, i)
		if err != nil {
			return fmt.Errorf("storage: failed to seed ingredient %s: %w", ing.ID, err)
		}
	}
	return nil
}

type orderRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Name        string         `db:"name"`
	Status      string         `db:"status"`
	Number      int            `db:"number"`
	Ingredients pq.StringArray `db:"ingredients"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r orderRow) toOrder() model.Order {
	return model.Order{
		ID:          r.ID,
		Status:      model.OrderStatus(r.Status),
		Name:        r.Name,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Number:      r.Number,
		Ingredients: append([]string(nil), r.Ingredients...),
	}
}

func (p *PostgresStorage) CreateOrder(ctx context.Context, userID uuid.UUID, name string, ingredientIDs []string) (model.Order, error) {
	now := time.Now().UTC()
	id := uuid.Must(uuid.NewV4()).String()

	query := `
		INSERT INTO orders (id, user_id, name, status, ingredients, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING number
	`
	var number int
	err := p.db.QueryRowContext(ctx, query,
		id, userID.String(), name, string(model.OrderStatusDone),
		pq.StringArray(ingredientIDs), now).Scan(&number)
	if err != nil {
		return model.Order{}, fmt.Errorf("storage: failed to create order: %w", err)
	}

	return model.Order{
		ID:          id,
		Status:      model.OrderStatusDone,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
		Number:      number,
		Ingredients: append([]string(nil), ingredientIDs...),
	}, nil
}

func (p *PostgresStorage) OrderByNumber(ctx context.Context, number int) (model.Order, error) {
	var row orderRow
	err := p.db.GetContext(ctx, &row, `SELECT * FROM orders WHERE number = $1`, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("storage: failed to get order by number: %w", err)
	}
	return row.toOrder(), nil
}

func (p *PostgresStorage) Feed(ctx context.Context) (model.FeedSnapshot, error) {
	var rows []orderRow
	err := p.db.SelectContext(ctx, &rows, `SELECT * FROM orders ORDER BY number DESC`)
	if err != nil {
		return model.FeedSnapshot{}, fmt.Errorf("storage: failed to list orders: %w", err)
	}

	orders := make([]model.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toOrder())
	}

	var totalToday int
	err = p.db.GetContext(ctx, &totalToday,
		`SELECT COUNT(*) FROM orders WHERE created_at >= date_trunc('day', now() AT TIME ZONE 'utc')`)
	if err != nil {
		return model.FeedSnapshot{}, fmt.Errorf("storage: failed to count today's orders: %w", err)
	}

	return model.FeedSnapshot{Orders: orders, Total: len(orders), TotalToday: totalToday}, nil
}

func (p *PostgresStorage) OrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	var rows []orderRow
	err := p.db.SelectContext(ctx, &rows,
		`SELECT * FROM orders WHERE user_id = $1 ORDER BY number DESC`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list user orders: %w", err)
	}

	orders := make([]model.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toOrder())
	}
	return orders, nil
}
