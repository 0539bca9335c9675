package cmd

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type sqlExecer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"module_access", "user_group_memberships", "modules", "user_groups", "users"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing seed data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminID := ensureUser(db, "admin@backoffice.local", "System", "Admin", "ADMIN", string(hash))
		userID := ensureUser(db, "erika@backoffice.local", "Erika", "Muster", "USER", string(hash))

		groupID := ensureGroup(db, "Staff", "Default staff group")
		ensureMembership(db, userID, groupID)
		ensureMembership(db, adminID, groupID)

		modules := []struct {
			Name string
			Key  string
			Sort int
		}{
			{"Intranet", "INTRANET", 1},
			{"Incidents", "incidents", 2},
			{"Project Reports", "project_reports", 3},
			{"Invoices", "invoices", 4},
		}

		for _, m := range modules {
			moduleID := ensureModule(db, m.Name, m.Key, m.Sort)
			ensureAccess(db, moduleID, groupID)
		}

		fmt.Println("Seeding complete")
	},
}

func ensureUser(db sqlExecer, email, firstName, lastName, role, hash string) string {
	var id string
	if err := db.QueryRow("SELECT id FROM users WHERE email = $1", email).Scan(&id); err == nil {
		fmt.Println("user already exists:", email)
		return id
	}

	id = uuid.New().String()
	if _, err := db.Exec(
		`INSERT INTO users (id, email, first_name, last_name, role, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())`,
		id, email, firstName, lastName, role, hash); err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
	return id
}

func ensureGroup(db sqlExecer, name, description string) string {
	var id string
	if err := db.QueryRow("SELECT id FROM user_groups WHERE name = $1", name).Scan(&id); err == nil {
		return id
	}

	id = uuid.New().String()
	if _, err := db.Exec(
		`INSERT INTO user_groups (id, name, description, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, true, now(), now())`,
		id, name, description); err != nil {
		log.Fatalf("failed to insert group %s: %v", name, err)
	}
	fmt.Println("Seeded group:", name)
	return id
}

func ensureMembership(db sqlExecer, userID, groupID string) {
	var exists int
	if err := db.QueryRow(
		"SELECT 1 FROM user_group_memberships WHERE user_id = $1 AND user_group_id = $2",
		userID, groupID).Scan(&exists); err == nil {
		return
	}

	if _, err := db.Exec(
		`INSERT INTO user_group_memberships (id, user_id, user_group_id, created_at)
		 VALUES ($1, $2, $3, now())`,
		uuid.New().String(), userID, groupID); err != nil {
		log.Fatalf("failed to insert membership: %v", err)
	}
}

func ensureModule(db sqlExecer, name, key string, sortOrder int) string {
	var id string
	if err := db.QueryRow("SELECT id FROM modules WHERE key = $1", key).Scan(&id); err == nil {
		return id
	}

	id = uuid.New().String()
	if _, err := db.Exec(
		`INSERT INTO modules (id, name, key, is_active, sort_order, created_at, updated_at)
		 VALUES ($1, $2, $3, true, $4, now(), now())`,
		id, name, key, sortOrder); err != nil {
		log.Fatalf("failed to insert module %s: %v", key, err)
	}
	fmt.Println("Seeded module:", key)
	return id
}

func ensureAccess(db sqlExecer, moduleID, groupID string) {
	var exists int
	if err := db.QueryRow(
		"SELECT 1 FROM module_access WHERE module_id = $1 AND user_group_id = $2",
		moduleID, groupID).Scan(&exists); err == nil {
		return
	}

	if _, err := db.Exec(
		`INSERT INTO module_access (id, module_id, user_group_id, can_view, can_create, can_edit, can_delete, created_at, updated_at)
		 VALUES ($1, $2, $3, true, true, true, false, now(), now())`,
		uuid.New().String(), moduleID, groupID); err != nil {
		log.Fatalf("failed to insert module access: %v", err)
	}
}
