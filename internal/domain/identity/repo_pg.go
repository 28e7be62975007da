package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

const pgUniqueViolation = "23505"

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type userRepoPG struct {
	pool      *pgxpool.Pool
	encryptor *hipaa.PHIEncryptor
}

// NewUserRepoPG returns a user repository. A nil encryptor stores PHI in
// plain text.
func NewUserRepoPG(pool *pgxpool.Pool, enc *hipaa.PHIEncryptor) UserRepository {
	return &userRepoPG{pool: pool, encryptor: enc}
}

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `username, password, COALESCE(pin, ''), role,
	COALESCE(full_name, ''), COALESCE(dob, ''), COALESCE(conditions, ''),
	COALESCE(email, ''), COALESCE(phone, ''), COALESCE(country, ''), COALESCE(area, ''),
	COALESCE(postcode, ''), COALESCE(nhs_number, ''),
	COALESCE(clinician_id, ''), COALESCE(professional_id, ''),
	disclaimer_accepted, last_login, created_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	phi, err := encryptPHI(r.encryptor, u)
	if err != nil {
		return fmt.Errorf("user create: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (
			username, password, pin, role, full_name, dob, conditions,
			email, phone, country, area, postcode, nhs_number,
			clinician_id, professional_id, disclaimer_accepted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at`,
		u.Username, u.PasswordHash, u.PINHash, u.Role, phi.FullName, phi.DOB, phi.Conditions,
		u.Email, u.Phone, u.Country, u.Area, u.Postcode, u.NHSNumber,
		u.ClinicianID, u.ProfessionalID, u.DisclaimerAccepted,
	).Scan(&u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrUsernameTaken
	}
	return err
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := decryptPHI(r.encryptor, u); err != nil {
		return nil, fmt.Errorf("user %s: %w", username, err)
	}
	return u, nil
}

func (r *userRepoPG) UpdateProfile(ctx context.Context, u *User) error {
	phi, err := encryptPHI(r.encryptor, u)
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET
			full_name = $2, dob = $3, conditions = $4,
			email = $5, phone = $6, country = $7, area = $8, postcode = $9, nhs_number = $10,
			disclaimer_accepted = $11
		WHERE username = $1`,
		u.Username, phi.FullName, phi.DOB, phi.Conditions,
		u.Email, u.Phone, u.Country, u.Area, u.Postcode, u.NHSNumber,
		u.DisclaimerAccepted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepoPG) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, hash)
	return err
}

func (r *userRepoPG) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET last_login = $2 WHERE username = $1`, username, at)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.Username, &u.PasswordHash, &u.PINHash, &u.Role,
		&u.FullName, &u.DOB, &u.Conditions,
		&u.Email, &u.Phone, &u.Country, &u.Area, &u.Postcode, &u.NHSNumber,
		&u.ClinicianID, &u.ProfessionalID,
		&u.DisclaimerAccepted, &u.LastLogin, &u.CreatedAt)
	return &u, err
}

// -- PHI Encryption Helpers --

type phiColumns struct {
	FullName   string
	DOB        string
	Conditions string
}

// encryptPHI returns the stored form of u's PHI columns without touching u.
func encryptPHI(enc *hipaa.PHIEncryptor, u *User) (phiColumns, error) {
	var out phiColumns
	var err error
	if out.FullName, err = enc.EncryptField(u.FullName); err != nil {
		return out, fmt.Errorf("encrypting full_name: %w", err)
	}
	if out.DOB, err = enc.EncryptField(u.DOB); err != nil {
		return out, fmt.Errorf("encrypting dob: %w", err)
	}
	if out.Conditions, err = enc.EncryptField(u.Conditions); err != nil {
		return out, fmt.Errorf("encrypting conditions: %w", err)
	}
	return out, nil
}

// decryptPHI decrypts u's PHI columns in place after retrieval.
func decryptPHI(enc *hipaa.PHIEncryptor, u *User) error {
	var err error
	if u.FullName, err = enc.DecryptField(u.FullName); err != nil {
		return fmt.Errorf("decrypting full_name: %w", err)
	}
	if u.DOB, err = enc.DecryptField(u.DOB); err != nil {
		return fmt.Errorf("decrypting dob: %w", err)
	}
	if u.Conditions, err = enc.DecryptField(u.Conditions); err != nil {
		return fmt.Errorf("decrypting conditions: %w", err)
	}
	return nil
}
