package notification

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/notifyme/pkg/domain/types"
	"gopkg.in/yaml.v3"
)

type seedEntry struct {
	Notification `yaml:",inline"`
	// Age is how long ago the notification was issued, e.g. "2h".
	Age string `yaml:"age"`
}

type seedFile struct {
	Notifications []seedEntry `yaml:"notifications"`
}

// ParseSeed reads a YAML list of notifications. Timestamps are computed
// relative to now from each entry's age.
func ParseSeed(data []byte, now time.Time) (Notifications, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse notification seed")
	}

	result := make(Notifications, 0, len(file.Notifications))
	for i, entry := range file.Notifications {
		n := entry.Notification
		if n.ID == "" {
			n.ID = types.NewNotificationID()
		}
		if n.Type == "" {
			n.Type = types.MessageInfo
		}
		if err := n.Type.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid notification seed entry", goerr.V("index", i))
		}
		if n.Title == "" {
			return nil, goerr.New("notification seed entry without title", goerr.V("index", i))
		}

		n.Timestamp = now
		if entry.Age != "" {
			age, err := time.ParseDuration(entry.Age)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid notification age", goerr.V("index", i), goerr.V("age", entry.Age))
			}
			n.Timestamp = now.Add(-age)
		}
		result = append(result, n)
	}

	return result, nil
}
