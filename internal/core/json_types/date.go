package json_types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/utils"
)

func unquote(data []byte) (string, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return "", fmt.Errorf("failed to parse time: %v", err)
	}
	return str, nil
}

type DateTime struct {
	Date time.Time
}

func (t *DateTime) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return err
	}

	parsedDate, err := utils.ParseDate(str)
	if err != nil {
		return err
	}

	*t = DateTime{Date: parsedDate}
	return nil
}

func (t DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Date.Format(time.RFC3339))
}

type Date struct {
	Date time.Time
}

func (t *Date) UnmarshalJSON(data []byte) error {
	str, err := unquote(data)
	if err != nil {
		return err
	}

	parsedDate, err := utils.ParseDate(str)
	if err != nil {
		return err
	}

	*t = Date{Date: utils.StartCurrentDay(parsedDate)}
	return nil
}

func (t Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Date.Format("2006-01-02"))
}
