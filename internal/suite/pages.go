package suite

import (
	"context"

	"github.com/qaops/gridctl/internal/webdriver"
)

// HomePage wraps the landing page's elements behind named accessors so
// scenarios never touch raw locators.
type HomePage struct {
	session *webdriver.Session
}

// Locators for the landing page navigation.
const (
	companyMenuXPath = "/html/body/nav/div[2]/div/ul[1]/li[6]/a"
	careersLinkXPath = "//*[@id='navbarNavDropdown']/ul[1]/li[6]/div/div[2]/a[2]"
)

// NewHomePage binds the page object to a live session.
func NewHomePage(session *webdriver.Session) *HomePage {
	return &HomePage{session: session}
}

// Visit navigates to the page.
func (p *HomePage) Visit(ctx context.Context, url string) error {
	return p.session.Navigate(ctx, url)
}

// OpenCompanyMenu clicks the Company navigation entry.
func (p *HomePage) OpenCompanyMenu(ctx context.Context) error {
	elem, err := p.session.FindElement(ctx, companyMenuXPath)
	if err != nil {
		return err
	}
	return elem.Click(ctx)
}

// OpenCareers clicks the Careers link inside the Company menu.
func (p *HomePage) OpenCareers(ctx context.Context) error {
	elem, err := p.session.FindElement(ctx, careersLinkXPath)
	if err != nil {
		return err
	}
	return elem.Click(ctx)
}
