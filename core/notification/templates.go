package notification

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const (
	DefaultTeacherSubject       = "Notificación: {{reasonText}}"
	DefaultAdministratorSubject = "Alerta del Sistema - Incidencia Detectada"

	DefaultTeacherTemplate = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #d32f2f; color: white; padding: 20px; text-align: center; }
    .content { padding: 20px; background-color: #f9f9f9; }
    .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    .info-box { background-color: white; padding: 15px; margin: 15px 0; border-left: 4px solid #d32f2f; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2>Notificación del Sistema de Gestión Universitaria</h2>
    </div>
    <div class="content">
      <p>Estimado/a <strong>{{teacherName}}</strong>,</p>
      <p>Le informamos que usted {{reasonText}}:</p>
      <div class="info-box">
        <p><strong>Curso:</strong> {{courseName}}</p>
        <p><strong>Fecha:</strong> {{date}}</p>
      </div>
      <p>Por favor, póngase en contacto con la administración si tiene alguna consulta o necesita justificar su ausencia.</p>
      <p>Atentamente,<br>Sistema de Gestión Universitaria</p>
    </div>
    <div class="footer">
      <p>Este es un mensaje automático. Por favor, no responda a este correo.</p>
    </div>
  </div>
</body>
</html>`

	DefaultAdministratorTemplate = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #ff9800; color: white; padding: 20px; text-align: center; }
    .content { padding: 20px; background-color: #f9f9f9; }
    .footer { padding: 20px; text-align: center; font-size: 12px; color: #666; }
    .alert-box { background-color: white; padding: 15px; margin: 15px 0; border-left: 4px solid #ff9800; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2>Alerta del Sistema</h2>
    </div>
    <div class="content">
      <p>Se ha detectado una incidencia:</p>
      <div class="alert-box">
        <p><strong>Docente:</strong> {{teacherName}}</p>
        <p><strong>Curso:</strong> {{courseName}}</p>
        <p><strong>Fecha:</strong> {{date}}</p>
        <p><strong>Motivo:</strong> {{reasonText}}</p>
      </div>
      <p>Por favor, revise la situación y tome las medidas correspondientes.</p>
    </div>
    <div class="footer">
      <p>Este es un mensaje automático del Sistema de Gestión Universitaria.</p>
    </div>
  </div>
</body>
</html>`
)

var (
	reasonTexts = map[Reason][2]string{ // {long, short}
		ReasonAbsence:    {"no asistió a su clase programada", "Falta a clase"},
		ReasonUnrecorded: {"no registró la asistencia de su clase", "Asistencia no registrada"},
	}

	dayNames   = [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	monthNames = [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto",
		"septiembre", "octubre", "noviembre", "diciembre"}
)

// ReasonText returns the long and short human texts of r.
func ReasonText(r Reason) (long, short string) {
	texts, ok := reasonTexts[r]
	if !ok {
		return string(r), string(r)
	}
	return texts[0], texts[1]
}

// LongDate formats t the way the emails show dates, e.g. "lunes, 5 de mayo de 2025".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d", dayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}

// templateVars are the placeholders available to subjects and bodies.
func templateVars(inc Incident, loc *time.Location) map[string]string {
	long, short := ReasonText(inc.Reason)
	return map[string]string{
		"teacherName": inc.TeacherName,
		"courseName":  inc.CourseName,
		"date":        LongDate(inc.ClassDate.In(loc)),
		"reasonText":  long,
		"reasonShort": short,
	}
}

// ReplaceVars replaces every `{{key}}` of tmpl with its value.
// Values are HTML escaped when escape is set.
func ReplaceVars(tmpl string, vars map[string]string, escape bool) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		if escape {
			v = html.EscapeString(v)
		}
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// appendMessage inserts a free text paragraph at the end of the body of an HTML document.
func appendMessage(doc, msg string) string {
	p := "<p>" + html.EscapeString(msg) + "</p>\n"
	if i := strings.LastIndex(doc, "</body>"); i >= 0 {
		return doc[:i] + p + doc[i:]
	}
	return doc + p
}
