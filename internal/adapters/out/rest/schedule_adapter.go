package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	nurl "net/url"
	"strings"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type bundleResponse struct {
	Entry []struct {
		Resource json.RawMessage `json:"resource"`
	} `json:"entry"`
}

// ScheduleAdapter reads provider schedules and appointments from a REST
// resource server using basic auth.
type ScheduleAdapter struct {
	client   *http.Client
	baseURL  string
	username string
	password string
	logger   out.LoggerPort
}

func NewScheduleAdapter(cfg *config.Config, logger out.LoggerPort) *ScheduleAdapter {
	return &ScheduleAdapter{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(cfg.ScheduleSource.URL, "/"),
		username: cfg.ScheduleSource.Username,
		password: cfg.ScheduleSource.Password,
		logger:   logger.WithModule("RestScheduleAdapter"),
	}
}

func (a *ScheduleAdapter) GetScheduleConfig(ctx context.Context, providerID string) (*domain.ScheduleConfig, error) {
	url := fmt.Sprintf("%s/ScheduleConfig/%s", a.baseURL, nurl.PathEscape(providerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.username, a.password)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("rest.schedule_config.fetch_failed", out.LogFields{
			"providerId": providerID,
			"error":      err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrScheduleNotFound
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Error("rest.schedule_config.fetch_failed", out.LogFields{
			"providerId": providerID,
			"status":     resp.StatusCode,
		})
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var scheduleConfig domain.ScheduleConfig
	if err := json.NewDecoder(resp.Body).Decode(&scheduleConfig); err != nil {
		a.logger.Error("rest.schedule_config.decode_failed", out.LogFields{
			"providerId": providerID,
			"error":      err.Error(),
		})
		return nil, err
	}
	scheduleConfig.ProviderID = providerID

	a.logger.Debug("rest.schedule_config.fetch_success", out.LogFields{
		"providerId": providerID,
	})

	return &scheduleConfig, nil
}

func (a *ScheduleAdapter) GetAppointments(ctx context.Context, providerID string, from, to time.Time) ([]domain.ExistingAppointment, error) {
	url := fmt.Sprintf("%s/Appointment", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	statuses := make([]string, 0, len(domain.ActiveAppointmentStatuses))
	for _, status := range domain.ActiveAppointmentStatuses {
		statuses = append(statuses, string(status))
	}

	query := nurl.Values{}
	query.Add("provider", providerID)
	query.Add("start", "ge"+from.Format(time.RFC3339))
	query.Add("start", "lt"+to.Format(time.RFC3339))
	query.Add("status", strings.Join(statuses, ","))
	req.URL.RawQuery = query.Encode()

	req.SetBasicAuth(a.username, a.password)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("rest.appointments.fetch_failed", out.LogFields{
			"providerId": providerID,
			"error":      err.Error(),
		})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("rest.appointments.fetch_failed", out.LogFields{
			"providerId": providerID,
			"status":     resp.StatusCode,
		})
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var bundle bundleResponse
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		a.logger.Error("rest.appointments.decode_response_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	appointments := make([]domain.ExistingAppointment, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		var appointment domain.ExistingAppointment
		if err := json.Unmarshal(entry.Resource, &appointment); err != nil {
			a.logger.Error("rest.appointments.decode_resource_failed", out.LogFields{
				"error": err.Error(),
			})
			return nil, err
		}
		// Сервер может не поддерживать фильтр по статусу
		if appointment.Status != "" && !isActiveStatus(appointment.Status) {
			continue
		}
		appointments = append(appointments, appointment)
	}

	a.logger.Debug("rest.appointments.fetch_success", out.LogFields{
		"providerId": providerID,
		"count":      len(appointments),
	})

	return appointments, nil
}

func isActiveStatus(status domain.AppointmentStatus) bool {
	for _, active := range domain.ActiveAppointmentStatuses {
		if status == active {
			return true
		}
	}
	return false
}
