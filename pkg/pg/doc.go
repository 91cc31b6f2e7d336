// Package pg bootstraps PostgreSQL access for the billing service on top of
// github.com/jackc/pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config (populated from PG_* environment
// variables) and retries until the database answers a ping. Migrate applies
// github.com/pressly/goose/v3 migrations from an fs.FS, normally the embed.FS
// exported by the migrations package. WithTx wraps a unit of work in a
// transaction, and the Is*Error helpers classify driver errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
package pg
