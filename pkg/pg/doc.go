// Package pg connects to PostgreSQL through a pgx pool and applies goose
// migrations from an embedded file system.
//
//	pool, err := pg.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
//	storage := notifications.NewPostgresStorage(pool)
package pg
