package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/ephemeris/internal/coord"
	"github.com/muurk/ephemeris/internal/payload"
)

var (
	scale         int
	payloadFile   string
	payloadFormat string
	dumpSchema    bool
)

func init() {
	encodeCmd.Flags().IntVar(&scale, "scale", coord.DefaultScale, "Fixed-point scale factor")
	decodeCmd.Flags().IntVar(&scale, "scale", coord.DefaultScale, "Fixed-point scale factor")
	decodeCmd.Flags().StringVar(&payloadFile, "payload", "", "Decode a payload file instead (- for stdin)")
	decodeCmd.Flags().StringVar(&payloadFormat, "encoding", "cbor", "Payload encoding (cbor, json)")
	schemaCmd.Flags().BoolVar(&dumpSchema, "yaml", false, "Print the schema as YAML")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(schemaCmd)
}

var encodeCmd = &cobra.Command{
	Use:   "encode <degrees>...",
	Short: "Encode coordinate components as the watch receives them",
	Long: `Convert decimal degrees into the fixed-point integers sent to the watch.

Values are multiplied by the scale (100) and truncated toward zero, so
65.4321 becomes 6543 and -147.729 becomes -14772.`,
	Example: `  ephemeris-cfg encode 65.4321
  ephemeris-cfg encode -- 64.84 -147.72`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("invalid number %q: %w", arg, err)
			}
			fmt.Println(coord.Encode(v, scale))
		}
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <value>...",
	Short: "Decode fixed-point values or a settings payload",
	Long: `Convert fixed-point integers back into decimal degrees, or print the
contents of an encoded settings payload with --payload.`,
	Example: `  ephemeris-cfg decode 6484
  ephemeris-cfg decode --payload settings.cbor
  ephemeris-cfg submit --dry-run | ephemeris-cfg decode --payload - --encoding json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if payloadFile != "" {
			return decodePayload()
		}
		if len(args) == 0 {
			return fmt.Errorf("nothing to decode: pass values or --payload")
		}
		for _, arg := range args {
			n, err := strconv.ParseInt(arg, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", arg, err)
			}
			fmt.Println(strconv.FormatFloat(coord.Decode(int32(n), scale), 'f', -1, 64))
		}
		return nil
	},
}

func decodePayload() error {
	enc, err := payload.ParseEncoding(payloadFormat)
	if err != nil {
		return err
	}

	var data []byte
	if payloadFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(payloadFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	if enc == payload.EncodingJSON {
		data = []byte(strings.TrimSpace(string(data)))
	}

	p, err := payload.Decode(data, enc)
	if err != nil {
		return err
	}
	fmt.Println(p.FormatDetailed())
	return nil
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List the settings fields",
	Long: `Print the fields of the settings schema in form order, with their kind,
default and range. Local fields are shown in the form but never sent.`,
	Example: `  ephemeris-cfg schema
  ephemeris-cfg schema --schema my-schema.yaml --yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		sch, err := loadSchema(reg.Preferences)
		if err != nil {
			return err
		}

		if dumpSchema {
			data, err := yaml.Marshal(sch)
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}
			fmt.Print(string(data))
			return nil
		}

		fmt.Printf("%s\n\n", sch.Title)
		fmt.Printf("%-20s %-8s %-10s %-18s %s\n", "ID", "KIND", "DEFAULT", "RANGE", "LABEL")
		for _, d := range sch.Descriptors() {
			f, err := d.Field()
			if err != nil {
				return err
			}
			rng := ""
			if f.Constraints != nil {
				rng = fmt.Sprintf("%g..%g", f.Constraints.Min, f.Constraints.Max)
				if f.Constraints.Step > 0 {
					rng += fmt.Sprintf(" /%g", f.Constraints.Step)
				}
			}
			label := f.Label
			if f.Local {
				label += " (local)"
			}
			def := ""
			if d.Default != nil {
				def = fmt.Sprint(d.Default)
			}
			fmt.Printf("%-20s %-8s %-10s %-18s %s\n", f.ID, f.Kind, def, rng, label)
		}
		return nil
	},
}
