package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
	"github.com/rxtech-lab/straddle-overlay/pkg/errors"
)

// ScheduleEntryConfig is the yaml form of one schedule entry.
type ScheduleEntryConfig struct {
	Time    string  `yaml:"time" json:"time" jsonschema:"title=Time,description=Schedule-local time of day in HH:MM format" validate:"required"`
	Portion float64 `yaml:"portion" json:"portion" jsonschema:"title=Portion,description=Fraction of current equity allocated at this slot,exclusiveMinimum=0,maximum=1" validate:"gt=0,lte=1"`
}

type OverlayEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash balance,minimum=0" validate:"gt=0"`
	Timezone       string                     `yaml:"timezone" json:"timezone" jsonschema:"title=Timezone,description=IANA timezone the schedule is expressed in" validate:"required"`
	Schedule       []ScheduleEntryConfig      `yaml:"schedule" json:"schedule" jsonschema:"title=Schedule,description=Ordered allocation slots" validate:"min=1,dive"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML implements custom unmarshaling for OverlayEngineV1Config
func (c *OverlayEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital float64               `yaml:"initial_capital"`
		Timezone       string                `yaml:"timezone"`
		Schedule       []ScheduleEntryConfig `yaml:"schedule"`
		StartTime      *time.Time            `yaml:"start_time"`
		EndTime        *time.Time            `yaml:"end_time"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Timezone = config.Timezone
	c.Schedule = config.Schedule
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks field constraints plus the parts a validator tag cannot
// express: timezone resolution, HH:MM parsing and schedule distinctness.
func (c *OverlayEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine configuration", err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	schedule, err := c.ScheduleEntries()
	if err != nil {
		return err
	}

	return schedule.Validate()
}

// Location resolves the configured IANA timezone.
func (c *OverlayEngineV1Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidTimezone, err, "unknown timezone %q", c.Timezone)
	}

	return location, nil
}

// ScheduleEntries parses the configured slots into schedule entries,
// preserving list order.
func (c *OverlayEngineV1Config) ScheduleEntries() (types.Schedule, error) {
	schedule := make(types.Schedule, 0, len(c.Schedule))

	for _, entry := range c.Schedule {
		hour, minute, err := types.ParseTimeOfDay(entry.Time)
		if err != nil {
			return nil, err
		}

		schedule = append(schedule, types.ScheduleEntry{
			Hour:    hour,
			Minute:  minute,
			Portion: entry.Portion,
		})
	}

	return schedule, nil
}

// GenerateSchema generates a JSON schema for the OverlayEngineV1Config
func (c *OverlayEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "overlay-engine-v1-config"
	schema.Description = "Configuration schema for OverlayEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the OverlayEngineV1Config
func (c *OverlayEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns the overlay's canonical six-slot schedule in the
// Hong Kong trading clock.
func DefaultConfig() OverlayEngineV1Config {
	return OverlayEngineV1Config{
		InitialCapital: 1_000_000,
		Timezone:       "Asia/Hong_Kong",
		Schedule: []ScheduleEntryConfig{
			{Time: "16:05", Portion: 1.0 / 3},
			{Time: "20:00", Portion: 1.0 / 12},
			{Time: "00:00", Portion: 1.0 / 12},
			{Time: "04:00", Portion: 1.0 / 12},
			{Time: "08:00", Portion: 1.0 / 12},
			{Time: "12:00", Portion: 1.0 / 3},
		},
		StartTime: optional.None[time.Time](),
		EndTime:   optional.None[time.Time](),
	}
}

// EmptyConfig returns an OverlayEngineV1Config with zero values
func EmptyConfig() OverlayEngineV1Config {
	return OverlayEngineV1Config{
		InitialCapital: 0,
		Timezone:       "",
		Schedule:       nil,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
