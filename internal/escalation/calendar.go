package escalation

import (
	"fmt"
	"os"
	"time"

	"github.com/rickar/cal/v2"
	"gopkg.in/yaml.v3"
)

// CalendarConfig is the YAML shape of a business calendar definition.
//
//	workdays: [monday, tuesday, wednesday, thursday, friday]
//	work_start_hour: 9
//	work_end_hour: 17
//	holidays:
//	  - {month: 12, day: 25, name: "Christmas"}
type CalendarConfig struct {
	Workdays      []string `yaml:"workdays"`
	WorkStartHour int      `yaml:"work_start_hour"`
	WorkEndHour   int      `yaml:"work_end_hour"`
	Holidays      []struct {
		Month int    `yaml:"month"`
		Day   int    `yaml:"day"`
		Name  string `yaml:"name"`
	} `yaml:"holidays"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadCalendarFile reads a business calendar definition from a YAML file.
func LoadCalendarFile(path string) (*cal.BusinessCalendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	var cfg CalendarConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse calendar file: %w", err)
	}
	return BuildCalendar(cfg)
}

// BuildCalendar turns a calendar config into a rickar/cal business calendar.
func BuildCalendar(cfg CalendarConfig) (*cal.BusinessCalendar, error) {
	c := cal.NewBusinessCalendar()

	if len(cfg.Workdays) > 0 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			c.SetWorkday(d, false)
		}
		for _, name := range cfg.Workdays {
			weekday, ok := weekdayNames[name]
			if !ok {
				return nil, fmt.Errorf("unknown workday %q", name)
			}
			c.SetWorkday(weekday, true)
		}
	}

	if cfg.WorkStartHour != 0 || cfg.WorkEndHour != 0 {
		if cfg.WorkEndHour <= cfg.WorkStartHour {
			return nil, fmt.Errorf("work_end_hour must be after work_start_hour")
		}
		c.SetWorkHours(
			time.Duration(cfg.WorkStartHour)*time.Hour,
			time.Duration(cfg.WorkEndHour)*time.Hour,
		)
	}

	for _, h := range cfg.Holidays {
		if h.Month < 1 || h.Month > 12 || h.Day < 1 || h.Day > 31 {
			return nil, fmt.Errorf("invalid holiday %d/%d", h.Month, h.Day)
		}
		c.AddHoliday(&cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: time.Month(h.Month),
			Day:   h.Day,
			Func:  cal.CalcDayOfMonth,
		})
	}

	return c, nil
}
