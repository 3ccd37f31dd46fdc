package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	UpdatesTotal     *prometheus.CounterVec
	CommandsTotal    *prometheus.CounterVec
	OrdersTotal      *prometheus.CounterVec
	ReferralsTotal   prometheus.Counter
	RedemptionsTotal prometheus.Counter
	BroadcastTotal   *prometheus.CounterVec
}

// New registers the bot collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_updates_total",
				Help: "Total number of Telegram updates processed",
			},
			[]string{"kind"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_commands_total",
				Help: "Total number of commands received",
			},
			[]string{"command"},
		),
		OrdersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_orders_total",
				Help: "Total number of free service orders placed",
			},
			[]string{"service"},
		),
		ReferralsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_referrals_credited_total",
			Help: "Total number of referrals credited",
		}),
		RedemptionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_codes_redeemed_total",
			Help: "Total number of redeem codes consumed",
		}),
		BroadcastTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_broadcast_deliveries_total",
				Help: "Broadcast deliveries by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
