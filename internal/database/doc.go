// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── users/           # User accounts and mobile API tokens
//	└── audit/           # Authentication audit trail
//
// Sessions are not modelled here: the scs sqlite3store owns the sessions
// table and shares the same *sql.DB handle.
//
// # Usage
//
//	db, err := database.NewDatabase("./osn.db", log)
//	usersRepo := users.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
package database
