package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/dukerupert/calmchores/internal/model"
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

func scanHouse(scanner interface{ Scan(...any) error }) (*model.House, error) {
	var h model.House
	var areas, members string
	err := scanner.Scan(&h.ID, &h.Name, &h.OwnerID, &h.JoinCode, &areas, &members, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(areas), &h.Areas); err != nil {
		return nil, fmt.Errorf("decode areas: %w", err)
	}
	if err := json.Unmarshal([]byte(members), &h.Members); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return &h, nil
}

const houseCols = `id, name, owner_id, join_code, areas, members, created_at, updated_at`

// Join codes avoid characters that are easy to misread aloud.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateJoinCode() (string, error) {
	code := make([]byte, 8)
	size := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// Create inserts a house with the default areas and makes the owner its
// first member.
func (s *HouseStore) Create(name, ownerID string) (*model.House, error) {
	id := uuid.NewString()
	code, err := generateJoinCode()
	if err != nil {
		return nil, err
	}
	areas, err := json.Marshal(model.DefaultAreas)
	if err != nil {
		return nil, fmt.Errorf("encode areas: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO houses (id, name, owner_id, join_code, areas) VALUES (?, ?, ?, ?, ?)`,
		id, name, ownerID, code, string(areas),
	); err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO house_members (house_id, user_id) VALUES (?, ?)`, id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("add owner: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit house: %w", err)
	}

	if err := s.ProjectMembers(id); err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *HouseStore) GetByID(id string) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return h, nil
}

func (s *HouseStore) GetByJoinCode(code string) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE join_code = ?`, code)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house by join code: %w", err)
	}
	return h, nil
}

func (s *HouseStore) Rename(id, name string) (*model.House, error) {
	_, err := s.db.Exec(`UPDATE houses SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("rename house: %w", err)
	}
	return s.GetByID(id)
}

// SetAreas replaces the house's area list. Tasks keep whatever area name
// they were created with.
func (s *HouseStore) SetAreas(id string, areas []string) (*model.House, error) {
	if areas == nil {
		areas = []string{}
	}
	data, err := json.Marshal(areas)
	if err != nil {
		return nil, fmt.Errorf("encode areas: %w", err)
	}
	_, err = s.db.Exec(`UPDATE houses SET areas = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(data), id)
	if err != nil {
		return nil, fmt.Errorf("update areas: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM houses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete house: %w", err)
	}
	return nil
}

// AddMember records membership and refreshes the projection. Adding an
// existing member is a no-op.
func (s *HouseStore) AddMember(houseID, userID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO house_members (house_id, user_id) VALUES (?, ?)`,
		houseID, userID,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return s.ProjectMembers(houseID)
}

func (s *HouseStore) RemoveMember(houseID, userID string) error {
	_, err := s.db.Exec(
		`DELETE FROM house_members WHERE house_id = ? AND user_id = ?`,
		houseID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return s.ProjectMembers(houseID)
}

// ProjectMembers rebuilds the house's embedded member list from the users
// table. It is the only writer of houses.members.
func (s *HouseStore) ProjectMembers(houseID string) error {
	rows, err := s.db.Query(
		`SELECT u.id, u.email, u.display_name, u.vacation_mode
		 FROM house_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.house_id = ?
		 ORDER BY hm.joined_at ASC, hm.rowid ASC`,
		houseID,
	)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}

	members := []model.UserSummary{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.VacationMode); err != nil {
			rows.Close()
			return fmt.Errorf("scan member: %w", err)
		}
		members = append(members, u.Summary())
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("iterate members: %w", err)
	}

	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}
	if _, err := s.db.Exec(
		`UPDATE houses SET members = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(data), houseID,
	); err != nil {
		return fmt.Errorf("update members: %w", err)
	}
	return nil
}

// ProjectMembersForUser refreshes every house the user belongs to. Call it
// after a profile change.
func (s *HouseStore) ProjectMembersForUser(userID string) error {
	ids, err := s.houseIDsForUser(userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.ProjectMembers(id); err != nil {
			return fmt.Errorf("project house %s: %w", id, err)
		}
	}
	return nil
}

func (s *HouseStore) houseIDsForUser(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT house_id FROM house_members WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list house ids for user: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan house id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *HouseStore) ListForUser(userID string) ([]model.House, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.owner_id, h.join_code, h.areas, h.members, h.created_at, h.updated_at
		 FROM houses h
		 JOIN house_members hm ON h.id = hm.house_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list houses for user: %w", err)
	}
	defer rows.Close()

	var houses []model.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}
