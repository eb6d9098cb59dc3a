package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&verifyCmd{},
	&summaryCmd{},
}

// connect carga la configuración y abre el pool; el llamador cierra el pool.
func connect(ctx context.Context) (*pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	zl := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name}).Component("ledgerctl")
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, zl, err
	}
	return pool, zl, nil
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "aplica el esquema del libro (idempotente)" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate

  Crea las tablas de ítems, saldos, libro, ajustes, conciliaciones y
  secuencias si no existen.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pool, zl, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	zl.Info().Msg("esquema aplicado")
	return subcommands.ExitSuccess
}

type verifyCmd struct {
	item string
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "verifica la cadena de saldos de cada ítem" }
func (*verifyCmd) Usage() string {
	return `ledgerctl verify [-item <id>]

  Recorre la cadena de asientos de cada ítem en orden de secuencia,
  comprueba que cada saldo corriente de cantidad y peso sea el anterior
  más el movimiento y compara la cantidad final con el registro de ítems.
  Sale con 1 si alguna cadena está rota o desalineada.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.item, "item", "", "verificar solo este ítem (por defecto todos)")
}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pool, zl, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	uc := stock.NewLedgerUseCase(postgres.Repositories(pool), zl)
	var reports []dto.ChainReport
	if c.item != "" {
		r, err := uc.Verify(ctx, c.item)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		reports = append(reports, *r)
	} else {
		reports, err = uc.VerifyAll(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	if printReports(os.Stdout, reports) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printReports imprime una línea por ítem y devuelve cuántos fallaron.
func printReports(w io.Writer, reports []dto.ChainReport) int {
	bad := 0
	for _, r := range reports {
		switch {
		case r.Break != nil:
			bad++
			fmt.Fprintf(w, "ROTA       %s asiento=%s %s esperado=%s obtenido=%s\n",
				r.ItemID, r.Break.EntryID, r.Break.Field, r.Break.Expected, r.Break.Got)
		case r.QuantityMismatch:
			bad++
			fmt.Fprintf(w, "DESAJUSTE  %s libro=%d registro=%d saldo=%d\n",
				r.ItemID, r.LedgerQuantity, r.RegistryQuantity, r.BalanceQuantity)
		default:
			fmt.Fprintf(w, "OK         %s asientos=%d cantidad=%d\n", r.ItemID, r.Entries, r.LedgerQuantity)
		}
	}
	fmt.Fprintf(w, "%d ítems, %d con problemas\n", len(reports), bad)
	return bad
}

type summaryCmd struct {
	lowStock int64
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "imprime el resumen de existencias en JSON" }
func (*summaryCmd) Usage() string {
	return `ledgerctl summary [-low <n>]

  Imprime totales, alertas, desglose por metal y últimos ajustes.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.lowStock, "low", 5, "umbral de existencia baja")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pool, zl, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	uc := stock.NewReportUseCase(postgres.Repositories(pool), nil, nil, c.lowStock, zl)
	summary, err := uc.Summary(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
