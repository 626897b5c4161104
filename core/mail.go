package core

import (
	"bytes"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"log"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/assets"
)

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	// executor is satisfied by both text and html templates.
	executor interface {
		Execute(w io.Writer, data interface{}) error
	}

	tmplCacheEntry map[string]executor       // {ext: template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessage renders and sends msg, reporting any transport failure.
		SendMessage(msg *EmailMessage) error
		// SendMessages sends messages concurrently; failures are only logged.
		SendMessages(messages ...*EmailMessage)
		// Verify checks that the transport accepts connections and credentials.
		Verify() error
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		AppName:         Conf.AppName,
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// execute renders the template variant ext into dst; a missing variant leaves dst as is.
func (m *EmailMessage) execute(ext string, dst *string) error {
	tmpl, ok := templates[m.TemplateName][ext]
	if !ok {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData()); err != nil {
		return err
	}
	*dst = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
// Messages built with HTMLContent already set and no template are left untouched.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates) // only execute once during first request
	if _, ok := templates[m.TemplateName]; !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}
	if m.BodyStr == "" {
		if err := m.execute(".txt", &m.TextContent); err != nil {
			return errors.Wrap(err, "rendering text content")
		}
	}
	return errors.Wrap(m.execute(".gohtml", &m.HTMLContent), "rendering html content")
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// Recipients returns every To, Cc and Bcc address.
func (m *EmailMessage) Recipients() []string {
	rcpts := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	for _, list := range [][]mail.Address{m.To, m.Cc, m.Bcc} {
		for _, a := range list {
			rcpts = append(rcpts, a.Address)
		}
	}
	return rcpts
}

func parseTemplates() {
	templates = make(tmplCache)

	root := "templates/email"
	fps, err := fs.Glob(assets.FS, path.Join(root, "*"))
	if err != nil {
		log.Print(errors.Wrap(err, "core.parseTemplates"))
	}

	strict := Conf.Debug || Conf.TestMode
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") {
			continue
		}

		var (
			tmpl     executor
			parseErr error
		)
		switch ext {
		case ".txt":
			t, err := texttmpl.ParseFS(assets.FS, path.Join(root, "_base.txt"), fp)
			if err == nil && strict {
				t = t.Option("missingkey=error")
			}
			tmpl, parseErr = t, err
		case ".gohtml":
			t, err := htmltmpl.ParseFS(assets.FS, path.Join(root, "_base.gohtml"), fp)
			if err == nil && strict {
				t = t.Option("missingkey=error")
			}
			tmpl, parseErr = t, err
		default:
			continue
		}
		if parseErr != nil {
			log.Print(errors.Wrapf(parseErr, "core.parseTemplates(%s)", fname))
			continue
		}

		name := strings.TrimSuffix(fname, ext)
		if templates[name] == nil {
			templates[name] = make(tmplCacheEntry)
		}
		templates[name][ext] = tmpl
	}
}
