package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reportdesk/report-portal/internal/schema"
	"github.com/reportdesk/report-portal/internal/spreadsheet"
	"github.com/reportdesk/report-portal/internal/validator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check a schema file for consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(opts.schemaPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d fields in %d sheets (%s layout)\n", len(sch.Fields), len(sch.Sheets), sch.Layout)
			return nil
		},
	}
}

func newBlankCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "blank",
		Short: "Render the empty input workbook of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(opts.schemaPath)
			if err != nil {
				return err
			}
			body, err := spreadsheet.EncodeBlank(sch)
			if err != nil {
				return err
			}
			return writeOutput(opts.log, output, body)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook to write")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newEncodeCmd(opts *options) *cobra.Command {
	var (
		dataPath string
		output   string
		validate bool
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Render a JSON payload as a workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(opts.schemaPath)
			if err != nil {
				return err
			}
			payload, err := loadPayload(dataPath)
			if err != nil {
				return err
			}
			if validate {
				if payload, err = validator.Validate(sch, payload); err != nil {
					return err
				}
			}
			for _, id := range schema.Unrecognized(sch, payload) {
				opts.log.WithField("field_id", id).Warn("payload value has no field in the schema and is not rendered")
			}

			body, err := spreadsheet.Encode(sch, payload)
			if err != nil {
				return err
			}
			return writeOutput(opts.log, output, body)
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "JSON payload file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook to write")
	cmd.Flags().BoolVar(&validate, "validate", true, "reject payloads with missing or mistyped values")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newDecodeCmd(opts *options) *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "decode <workbook.xlsx>",
		Short: "Read a filled-in workbook and print its payload as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(opts.schemaPath)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			payload, warnings, err := spreadsheet.Decode(f, sch)
			for _, w := range warnings {
				opts.log.WithField("sheet", w.Sheet).Warn(w.String())
			}
			if err != nil {
				return err
			}
			if validate {
				if payload, err = validator.Validate(sch, payload); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "validate the decoded payload against the schema")
	return cmd
}

// loadSchema reads a schema from YAML or JSON, picked by file extension.
// Fields without a type are text and a missing layout means rows.
func loadSchema(path string) (*schema.TemplateSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sch schema.TemplateSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &sch)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sch)
	default:
		return nil, fmt.Errorf("unsupported schema file %q: want .yaml, .yml or .json", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}

	for i := range sch.Fields {
		if sch.Fields[i].Type == "" {
			sch.Fields[i].Type = schema.FieldText
		}
	}
	if sch.Layout == "" {
		sch.Layout = schema.LayoutRows
	}
	if err := sch.Check(); err != nil {
		return nil, err
	}
	return &sch, nil
}

func loadPayload(path string) (schema.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Payload{}, err
	}
	var p schema.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return schema.Payload{}, fmt.Errorf("failed to parse payload %s: %w", path, err)
	}
	return p, nil
}

func writeOutput(log logrus.FieldLogger, path string, body []byte) error {
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"path": path, "bytes": len(body)}).Info("workbook written")
	return nil
}
