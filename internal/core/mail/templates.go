package mail

import (
	"bytes"
	"html/template"
)

var tpl = template.Must(template.New("mail").Parse(`
{{define "new_submission"}}<p>Um novo negócio foi cadastrado e aguarda aprovação.</p>
<p><strong>{{.Name}}</strong> ({{.Category}}) enviado por {{.Owner}}.</p>
<p><a href="{{.Link}}">Abrir painel de moderação</a></p>{{end}}

{{define "submission_received"}}<p>Recebemos o cadastro de <strong>{{.Name}}</strong>.</p>
<p>Ele ficará visível no diretório assim que for aprovado pela equipe.</p>{{end}}

{{define "listing_published"}}<p>Boa notícia! <strong>{{.Name}}</strong> foi aprovado e já está visível no diretório.</p>
<p><a href="{{.Link}}">Ver página do negócio</a></p>{{end}}

{{define "password_reset"}}<p>Recebemos um pedido para redefinir sua senha.</p>
<p><a href="{{.Link}}">Definir nova senha</a></p>
<p>O link expira em {{.Minutes}} minutos. Se você não fez o pedido, ignore este e-mail.</p>{{end}}
`))

type view struct {
	Name     string
	Category string
	Owner    string
	Link     string
	Minutes  int
}

func render(name string, v view) (string, error) {
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
