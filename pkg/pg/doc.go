// Package pg connects to PostgreSQL with pgx/v5 and manages the relationship
// schema read by the streaming server.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if cfg.RunMigrations {
//	    if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	        return err
//	    }
//	}
//
// Healthcheck returns a probe suitable for the readiness endpoint.
package pg
