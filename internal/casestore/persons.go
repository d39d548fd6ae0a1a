package casestore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"argus/internal/domain"
)

// CreatePerson stores a new person dossier in the case and returns it with
// generated IDs.
func (s *Store) CreatePerson(caseName string, person domain.Person) (domain.Person, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return domain.Person{}, err
	}
	person.ID = uuid.NewString()
	person.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	tx, err := handle.Begin()
	if err != nil {
		return domain.Person{}, fmt.Errorf("create person: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO persons (id, first_name, last_name, dni, birth_date, phone, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		person.ID, person.FirstName, person.LastName, person.DNI,
		person.BirthDate, person.Phone, person.Email, person.CreatedAt); err != nil {
		return domain.Person{}, fmt.Errorf("create person: %w", err)
	}
	for i := range person.Nicknames {
		person.Nicknames[i].ID = uuid.NewString()
		if _, err := tx.Exec(
			`INSERT INTO person_nicknames (id, person_id, value) VALUES (?, ?, ?)`,
			person.Nicknames[i].ID, person.ID, person.Nicknames[i].Value); err != nil {
			return domain.Person{}, fmt.Errorf("create person: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Person{}, err
	}
	s.logger.Info("person created", "case", caseName, "person", person.ID)
	return person, nil
}

// ListPersons returns every person dossier in the case, fully populated.
func (s *Store) ListPersons(caseName string) ([]domain.Person, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return nil, err
	}
	rows, err := handle.Query(
		`SELECT id, first_name, last_name, dni, birth_date, phone, email, created_at
		 FROM persons ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []domain.Person
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DNI,
			&p.BirthDate, &p.Phone, &p.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range persons {
		if err := s.fillPerson(handle, &persons[i]); err != nil {
			return nil, err
		}
	}
	return persons, nil
}

func (s *Store) fillPerson(handle *sql.DB, p *domain.Person) error {
	nickRows, err := handle.Query(`SELECT id, value FROM person_nicknames WHERE person_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer nickRows.Close()
	for nickRows.Next() {
		var n domain.Nickname
		if err := nickRows.Scan(&n.ID, &n.Value); err != nil {
			return err
		}
		p.Nicknames = append(p.Nicknames, n)
	}
	if err := nickRows.Err(); err != nil {
		return err
	}

	addrRows, err := handle.Query(
		`SELECT id, street, number, locality, state, country, zip_code FROM addresses WHERE person_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer addrRows.Close()
	for addrRows.Next() {
		var a domain.Address
		if err := addrRows.Scan(&a.ID, &a.Street, &a.Number, &a.Locality, &a.State, &a.Country, &a.ZipCode); err != nil {
			return err
		}
		p.Addresses = append(p.Addresses, a)
	}
	if err := addrRows.Err(); err != nil {
		return err
	}

	jobRows, err := handle.Query(
		`SELECT id, title, company, date_start, date_end FROM jobs WHERE person_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer jobRows.Close()
	for jobRows.Next() {
		var j domain.Job
		if err := jobRows.Scan(&j.ID, &j.Title, &j.Company, &j.DateStart, &j.DateEnd); err != nil {
			return err
		}
		p.Jobs = append(p.Jobs, j)
	}
	if err := jobRows.Err(); err != nil {
		return err
	}

	profRows, err := handle.Query(
		`SELECT id, platform, username, url FROM social_profiles WHERE person_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer profRows.Close()
	for profRows.Next() {
		var sp domain.SocialProfile
		if err := profRows.Scan(&sp.ID, &sp.Platform, &sp.Username, &sp.URL); err != nil {
			return err
		}
		p.SocialProfiles = append(p.SocialProfiles, sp)
	}
	return profRows.Err()
}

// UpdatePerson replaces the basic fields of an existing person. Sub-entities
// are managed through their own add/remove operations.
func (s *Store) UpdatePerson(caseName string, person domain.Person) error {
	handle, err := s.open(caseName)
	if err != nil {
		return err
	}
	res, err := handle.Exec(
		`UPDATE persons SET first_name = ?, last_name = ?, dni = ?, birth_date = ?, phone = ?, email = ?
		 WHERE id = ?`,
		person.FirstName, person.LastName, person.DNI, person.BirthDate,
		person.Phone, person.Email, person.ID)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("person %q does not exist in case %q", person.ID, caseName)
	}
	return nil
}

// DeletePerson removes a person and all dependent rows.
func (s *Store) DeletePerson(caseName, personID string) error {
	handle, err := s.open(caseName)
	if err != nil {
		return err
	}
	tx, err := handle.Begin()
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	defer tx.Rollback()

	// ON DELETE CASCADE is not enforced by every sqlite configuration, so the
	// dependent rows are removed explicitly.
	for _, table := range []string{"person_nicknames", "addresses", "jobs", "social_profiles"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE person_id = ?`, personID); err != nil {
			return fmt.Errorf("delete person: %w", err)
		}
	}
	res, err := tx.Exec(`DELETE FROM persons WHERE id = ?`, personID)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("person %q does not exist in case %q", personID, caseName)
	}
	return tx.Commit()
}

// AddNickname attaches a nickname to a person and returns its generated ID.
func (s *Store) AddNickname(caseName, personID, value string) (string, error) {
	return s.addSubEntity(caseName, personID,
		`INSERT INTO person_nicknames (id, person_id, value) VALUES (?, ?, ?)`, value)
}

// RemoveNickname deletes a nickname by ID.
func (s *Store) RemoveNickname(caseName, nicknameID string) error {
	return s.removeSubEntity(caseName, "person_nicknames", nicknameID)
}

// AddAddress attaches an address to a person and returns its generated ID.
func (s *Store) AddAddress(caseName, personID string, a domain.Address) (string, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := handle.Exec(
		`INSERT INTO addresses (id, person_id, street, number, locality, state, country, zip_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, personID, a.Street, a.Number, a.Locality, a.State, a.Country, a.ZipCode); err != nil {
		return "", fmt.Errorf("add address: %w", err)
	}
	return id, nil
}

// RemoveAddress deletes an address by ID.
func (s *Store) RemoveAddress(caseName, addressID string) error {
	return s.removeSubEntity(caseName, "addresses", addressID)
}

// AddJob attaches a job record to a person and returns its generated ID.
func (s *Store) AddJob(caseName, personID string, j domain.Job) (string, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := handle.Exec(
		`INSERT INTO jobs (id, person_id, title, company, date_start, date_end)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, personID, j.Title, j.Company, j.DateStart, j.DateEnd); err != nil {
		return "", fmt.Errorf("add job: %w", err)
	}
	return id, nil
}

// RemoveJob deletes a job record by ID.
func (s *Store) RemoveJob(caseName, jobID string) error {
	return s.removeSubEntity(caseName, "jobs", jobID)
}

// AddSocialProfile attaches a social profile to a person and returns its
// generated ID.
func (s *Store) AddSocialProfile(caseName, personID string, sp domain.SocialProfile) (string, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := handle.Exec(
		`INSERT INTO social_profiles (id, person_id, platform, username, url)
		 VALUES (?, ?, ?, ?, ?)`,
		id, personID, sp.Platform, sp.Username, sp.URL); err != nil {
		return "", fmt.Errorf("add social profile: %w", err)
	}
	return id, nil
}

// RemoveSocialProfile deletes a social profile by ID.
func (s *Store) RemoveSocialProfile(caseName, profileID string) error {
	return s.removeSubEntity(caseName, "social_profiles", profileID)
}

func (s *Store) addSubEntity(caseName, personID, insertSQL, value string) (string, error) {
	handle, err := s.open(caseName)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := handle.Exec(insertSQL, id, personID, value); err != nil {
		return "", fmt.Errorf("add person detail: %w", err)
	}
	return id, nil
}

func (s *Store) removeSubEntity(caseName, table, id string) error {
	handle, err := s.open(caseName)
	if err != nil {
		return err
	}
	res, err := handle.Exec(`DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove person detail: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no row %q in %s", id, table)
	}
	return nil
}
