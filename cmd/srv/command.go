package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "GitBounty"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `The main service included all apis.`,
		},
		{
			Action:      s.startParser,
			Name:        "parser",
			Usage:       "Start comment parser worker",
			Category:    "Worker",
			Description: `Consumes comment events and extracts rewards from them.`,
		},
		{
			Action:      s.startSettlement,
			Name:        "settlement",
			Usage:       "Start claim settlement worker",
			Category:    "Worker",
			Description: `Consumes accepted claims and settles them against the ledger.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Runs the voucher confirmation sweep and the job redeliverer.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database to the latest version",
			Category:    "Database",
			Description: `Applies pending schema migrations and exits.`,
		},
	}

	s.app = app
}
