package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/hrfunc/hrfunc-site/internal/logging"
)

type page struct {
	Route    string
	Template string
	Title    string
	Priority string
}

// sitePages is the fixed set of informational pages, also enumerated by
// the sitemap with these priority weights.
var sitePages = []page{
	{"/", "index.html", "hrfunc", "1.0"},
	{"/about", "about.html", "About", "0.8"},
	{"/developer", "developer.html", "Developer", "0.6"},
	{"/contact", "contact.html", "Contact", "0.6"},
	{"/events", "events.html", "Events", "0.5"},
	{"/hrfunc_guide", "hrfunc_guide.html", "hrfunc Guide", "0.8"},
	{"/hrtree_guide", "hrtree_guide.html", "hrtree Guide", "0.8"},
	{"/QA", "QA.html", "Q&A", "0.5"},
	{"/experimental_contexts", "experimental_contexts.html", "Experimental Contexts", "0.7"},
	{"/hrf_upload", "hrf_upload.html", "Upload HRF Estimates", "0.9"},
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (s *Server) pageHandler(p page) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		errors := session.Flashes("error")
		messages := session.Flashes("success")
		if len(errors) > 0 || len(messages) > 0 {
			if err := session.Save(); err != nil {
				logging.Warnf("failed to clear flashes: %v", err)
			}
		}

		if !s.templatesLoaded {
			c.String(http.StatusOK, p.Title)
			return
		}

		c.HTML(http.StatusOK, p.Template, gin.H{
			"title":    p.Title,
			"errors":   errors,
			"messages": messages,
		})
	}
}

func (s *Server) robotsTXT(c *gin.Context) {
	body := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n",
		s.config.Server.SiteURL)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	Priority string `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (s *Server) sitemapXML(c *gin.Context) {
	urlSet := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}
	for _, p := range sitePages {
		urlSet.URLs = append(urlSet.URLs, sitemapURL{
			Loc:      s.config.Server.SiteURL + p.Route,
			Priority: p.Priority,
		})
	}

	body, err := xml.MarshalIndent(urlSet, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to generate sitemap")
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8",
		append([]byte(xml.Header), body...))
}
