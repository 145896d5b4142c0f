package app

import (
	"fmt"
	"math/rand"
	"strings"

	"windexai/internal/util"
	"windexai/pkg/domain"
)

const slugAttempts = 5

// CreateDeployment publishes generated site content under a fresh unique slug.
func (a *App) CreateDeployment(user domain.User, title, description, html, css, js string) (domain.Deployment, error) {
	if strings.TrimSpace(html) == "" {
		return domain.Deployment{}, fmt.Errorf("html content required")
	}
	if strings.TrimSpace(title) == "" {
		title = "Мой сайт"
	}

	slug, err := a.freshSlug()
	if err != nil {
		return domain.Deployment{}, err
	}
	dep := domain.Deployment{
		ID:          util.NewID(),
		OwnerID:     user.ID,
		Title:       title,
		Description: description,
		Slug:        slug,
		HTML:        html,
		CSS:         css,
		JS:          js,
		IsActive:    true,
		CreatedAt:   nowUTC(),
		UpdatedAt:   nowUTC(),
	}
	if err := a.store.CreateDeployment(dep); err != nil {
		return domain.Deployment{}, fmt.Errorf("create deployment: %w", err)
	}
	if err := a.store.SaveAnalytics(demoAnalytics(dep.ID)); err != nil {
		a.log.Warn("seed analytics failed", "deployment_id", dep.ID, "error", err)
	}
	a.log.Info("site deployed", "deployment_id", dep.ID, "slug", slug)
	return dep, nil
}

func (a *App) freshSlug() (string, error) {
	for i := 0; i < slugAttempts; i++ {
		slug := util.NewSlug()
		taken, err := a.store.HasDeploymentSlug(slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
	}
	return "", fmt.Errorf("could not allocate unique slug")
}

// PublicURL composes the public address of a deployment.
func (a *App) PublicURL(dep domain.Deployment) string {
	base := strings.TrimRight(a.publicBaseURL, "/")
	return base + "/sites/" + dep.Slug
}

// ServeSite renders a deployed site by slug, inlining stored CSS and JS into
// the HTML document. Missing and inactive deployments both report not found.
func (a *App) ServeSite(slug string) (string, error) {
	dep, ok, err := a.store.GetDeploymentBySlug(slug)
	if err != nil {
		return "", fmt.Errorf("load deployment: %w", err)
	}
	if !ok || !dep.IsActive {
		return "", ErrNotFound
	}
	a.recordVisit(dep.ID)
	return renderSite(dep), nil
}

// renderSite inlines CSS before </head> and JS before </body>. Documents
// without those tags get the blocks prepended/appended instead.
func renderSite(dep domain.Deployment) string {
	html := dep.HTML
	if css := strings.TrimSpace(dep.CSS); css != "" {
		block := "<style>\n" + css + "\n</style>"
		if strings.Contains(html, "</head>") {
			html = strings.Replace(html, "</head>", block+"\n</head>", 1)
		} else {
			html = block + "\n" + html
		}
	}
	if js := strings.TrimSpace(dep.JS); js != "" {
		block := "<script>\n" + js + "\n</script>"
		if strings.Contains(html, "</body>") {
			html = strings.Replace(html, "</body>", block+"\n</body>", 1)
		} else {
			html = html + "\n" + block
		}
	}
	return html
}

func (a *App) recordVisit(deploymentID string) {
	stats, ok, err := a.store.GetAnalytics(deploymentID)
	if err != nil {
		return
	}
	if !ok {
		stats = demoAnalytics(deploymentID)
	}
	stats.PageViews++
	if rand.Intn(3) == 0 {
		stats.UniqueVisitors++
	}
	stats.UpdatedAt = nowUTC()
	_ = a.store.SaveAnalytics(stats)
}

// demoAnalytics seeds plausible-looking demo counters for a new deployment.
func demoAnalytics(deploymentID string) domain.SiteAnalytics {
	return domain.SiteAnalytics{
		DeploymentID:    deploymentID,
		PageViews:       int64(rand.Intn(500) + 50),
		UniqueVisitors:  int64(rand.Intn(200) + 20),
		Errors:          int64(rand.Intn(5)),
		AvgLoadTime:     0.4 + rand.Float64()*1.6,
		SessionDuration: 30 + rand.Float64()*270,
		BounceRate:      20 + rand.Float64()*60,
		UpdatedAt:       nowUTC(),
	}
}

// ListDeployments returns the user's deployments.
func (a *App) ListDeployments(user domain.User) ([]domain.Deployment, error) {
	return a.store.ListDeploymentsByOwner(user.ID)
}

// GetDeployment returns one deployment owned by the user.
func (a *App) GetDeployment(user domain.User, deploymentID string) (domain.Deployment, error) {
	return a.ownedDeployment(user, deploymentID)
}

// UpdateDeployment rewrites deployment content or toggles visibility.
func (a *App) UpdateDeployment(user domain.User, dep domain.Deployment) (domain.Deployment, error) {
	existing, err := a.ownedDeployment(user, dep.ID)
	if err != nil {
		return domain.Deployment{}, err
	}
	if dep.Title != "" {
		existing.Title = dep.Title
	}
	existing.Description = dep.Description
	if dep.HTML != "" {
		existing.HTML = dep.HTML
	}
	if dep.CSS != "" {
		existing.CSS = dep.CSS
	}
	if dep.JS != "" {
		existing.JS = dep.JS
	}
	existing.IsActive = dep.IsActive
	if err := a.store.UpdateDeployment(existing); err != nil {
		return domain.Deployment{}, fmt.Errorf("update deployment: %w", err)
	}
	return existing, nil
}

// DeleteDeployment removes a deployment and its analytics.
func (a *App) DeleteDeployment(user domain.User, deploymentID string) error {
	if _, err := a.ownedDeployment(user, deploymentID); err != nil {
		return err
	}
	return a.store.DeleteDeployment(deploymentID)
}

// AnalyticsReport is the per-deployment analytics payload: stored counters
// plus a fabricated daily breakdown for the dashboard charts.
type AnalyticsReport struct {
	domain.SiteAnalytics
	Daily []DailyStat `json:"daily"`
}

type DailyStat struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Visitors int64  `json:"visitors"`
	Errors   int64  `json:"errors"`
}

// DeploymentAnalytics returns analytics for one owned deployment.
func (a *App) DeploymentAnalytics(user domain.User, deploymentID string) (AnalyticsReport, error) {
	dep, err := a.ownedDeployment(user, deploymentID)
	if err != nil {
		return AnalyticsReport{}, err
	}
	stats, ok, err := a.store.GetAnalytics(dep.ID)
	if err != nil {
		return AnalyticsReport{}, fmt.Errorf("load analytics: %w", err)
	}
	if !ok {
		stats = demoAnalytics(dep.ID)
		_ = a.store.SaveAnalytics(stats)
	}
	return AnalyticsReport{SiteAnalytics: stats, Daily: demoDailyStats(stats)}, nil
}

// demoDailyStats fabricates a one-week breakdown roughly summing to the
// stored counters.
func demoDailyStats(stats domain.SiteAnalytics) []DailyStat {
	const days = 7
	daily := make([]DailyStat, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := nowUTC().AddDate(0, 0, -i)
		daily = append(daily, DailyStat{
			Date:     day.Format("2006-01-02"),
			Views:    randShare(stats.PageViews, days),
			Visitors: randShare(stats.UniqueVisitors, days),
			Errors:   randShare(stats.Errors, days),
		})
	}
	return daily
}

func randShare(total int64, parts int) int64 {
	avg := total / int64(parts)
	if avg <= 0 {
		return 0
	}
	return avg/2 + rand.Int63n(avg+1)
}

// DashboardSummary aggregates analytics across the user's deployments.
type DashboardSummary struct {
	Deployments    int                    `json:"deployments"`
	ActiveSites    int                    `json:"activeSites"`
	TotalViews     int64                  `json:"totalViews"`
	TotalVisitors  int64                  `json:"totalVisitors"`
	TotalErrors    int64                  `json:"totalErrors"`
	SuccessRate    float64                `json:"successRate"`
	PerSite        []domain.SiteAnalytics `json:"perSite"`
	AvgBounceRate  float64                `json:"avgBounceRate"`
	AvgSessionTime float64                `json:"avgSessionTime"`
}

// Dashboard builds the analytics overview for a user.
func (a *App) Dashboard(user domain.User) (DashboardSummary, error) {
	deps, err := a.store.ListDeploymentsByOwner(user.ID)
	if err != nil {
		return DashboardSummary{}, fmt.Errorf("list deployments: %w", err)
	}
	summary := DashboardSummary{Deployments: len(deps)}
	for _, dep := range deps {
		if dep.IsActive {
			summary.ActiveSites++
		}
		stats, ok, err := a.store.GetAnalytics(dep.ID)
		if err != nil {
			continue
		}
		if !ok {
			stats = demoAnalytics(dep.ID)
			_ = a.store.SaveAnalytics(stats)
		}
		summary.TotalViews += stats.PageViews
		summary.TotalVisitors += stats.UniqueVisitors
		summary.TotalErrors += stats.Errors
		summary.AvgBounceRate += stats.BounceRate
		summary.AvgSessionTime += stats.SessionDuration
		summary.PerSite = append(summary.PerSite, stats)
	}
	if n := len(summary.PerSite); n > 0 {
		summary.AvgBounceRate /= float64(n)
		summary.AvgSessionTime /= float64(n)
	}
	if summary.TotalViews > 0 {
		summary.SuccessRate = 100 * float64(summary.TotalViews-summary.TotalErrors) / float64(summary.TotalViews)
	}
	return summary, nil
}

func (a *App) ownedDeployment(user domain.User, deploymentID string) (domain.Deployment, error) {
	dep, ok, err := a.store.GetDeployment(deploymentID)
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("load deployment: %w", err)
	}
	if !ok {
		return domain.Deployment{}, ErrNotFound
	}
	if dep.OwnerID != user.ID {
		return domain.Deployment{}, ErrForbidden
	}
	return dep, nil
}
