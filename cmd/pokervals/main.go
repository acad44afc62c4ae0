package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Generate GenerateCmd      `cmd:"" help:"Generate the 5, 6 and 7 card hand value databases"`
	Freeze   FreezeCmd        `cmd:"" help:"Export complete databases to read-only CHD files"`
	Rank     RankCmd          `cmd:"" help:"Print the value of a 5 to 7 card hand"`
	NHands   NHandsCmd        `cmd:"" name:"nhands" help:"Count opponent holdings ahead of, behind and tied with a hand"`
	Equity   EquityCmd        `cmd:"" help:"Exact equity against known opponent hands"`
	Sample   SampleCmd        `cmd:"" help:"Monte Carlo equity estimate against known opponent hands"`
	ProbBeat ProbBeatCmd      `cmd:"" name:"prbeat" help:"Probability that the completed hand beats a given hand value"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokervals"),
		kong.Description("Precomputed poker hand values and exact equity"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
