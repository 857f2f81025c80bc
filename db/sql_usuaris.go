package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const userCols = `id, usuari, email, password_hash, is_admin, active, created_at`

func scanUser(row rowScanner) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Usuari, &u.Email, &u.Password, &u.IsAdmin, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser crea l'usuari guardant la contrasenya amb bcrypt.
func (s sqlStore) InsertUser(u *User, password string) (int, error) {
	if u == nil {
		return 0, nil
	}
	u.Usuari = strings.TrimSpace(u.Usuari)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Usuari == "" || u.Email == "" {
		return 0, fmt.Errorf("usuari i email són obligatoris")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("error generant hash: %w", err)
	}
	u.Password = hash
	stmt := `INSERT INTO usuaris (usuari, email, password_hash, is_admin, active, created_at)
        VALUES (?, ?, ?, ?, ?, ` + s.h.nowFun + `)`
	id, err := s.h.insert(stmt, u.Usuari, u.Email, u.Password, u.IsAdmin, u.Active)
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func (s sqlStore) GetUserByID(id int) (*User, error) {
	return scanUser(s.h.queryRow(`SELECT `+userCols+` FROM usuaris WHERE id = ?`, id))
}

func (s sqlStore) AuthenticateUser(usernameOrEmail, password string) (*User, error) {
	key := strings.TrimSpace(usernameOrEmail)
	u, err := scanUser(s.h.queryRow(`SELECT `+userCols+` FROM usuaris WHERE (usuari = ? OR email = ?) AND active = ?`,
		key, strings.ToLower(key), true))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("usuari no trobat o no actiu")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.Password, []byte(password)); err != nil {
		return nil, fmt.Errorf("contrasenya incorrecta")
	}
	return u, nil
}

func (s sqlStore) SetUserAdmin(id int, admin bool) error {
	_, err := s.h.exec(`UPDATE usuaris SET is_admin = ? WHERE id = ?`, admin, id)
	return err
}

func (s sqlStore) SetUserActive(id int, active bool) error {
	_, err := s.h.exec(`UPDATE usuaris SET active = ? WHERE id = ?`, active, id)
	return err
}
