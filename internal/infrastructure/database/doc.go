// Package database provides the SQLite connection used for the activity log.
//
// The database is optional: the router itself keeps no state in SQL, and the
// routing document stays a JSON file. When enabled, every routed signal,
// mode change, scene activation and track transition is recorded so the
// control plane can show recent history.
//
// Migrations are plain .sql files passed in as an fs.FS (see package
// migrations) and are applied additively, one transaction each.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
