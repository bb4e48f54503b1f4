package flags

import (
	"runtime"

	"github.com/urfave/cli/v2"
)

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML configuration with shape definitions",
		Value:   "config.yaml",
	}
	SeedFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "Seed for the RNG (Default = RandomSeed)",
		Value: 0,
	}
	TypeFlag = &cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Usage:   "Shape to generate; empty cycles through every registered shape",
	}
	CountFlag = &cli.IntFlag{
		Name:    "count",
		Aliases: []string{"n"},
		Usage:   "Number of corpus entries to produce",
		Value:   100,
	}
	MutationsFlag = &cli.IntFlag{
		Name:  "mutations",
		Usage: "Mutation rounds applied to each generated value before saving",
		Value: 0,
	}
	MaxSizeFlag = &cli.IntFlag{
		Name:  "maxsize",
		Usage: "Serialized byte budget per generated value (0 = unbounded)",
		Value: 0,
	}
	EndianFlag = &cli.StringFlag{
		Name:  "endian",
		Usage: "Byte order for encodes: big, little or random",
		Value: "big",
	}
	OutDirFlag = &cli.StringFlag{
		Name:  "outdir",
		Usage: "Location to place corpus entries",
		Value: "corpus",
	}
	ThreadFlag = &cli.IntFlag{
		Name:  "parallel",
		Usage: "Number of parallel workers to use.",
		Value: runtime.NumCPU(),
	}
	VerbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "sets the verbosity level (-4: DEBUG, 0: INFO, 4: WARN, 8: ERROR)",
		Value: 0,
	}
)
