package domain

type Category struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Categories 提交页可选分类
var Categories = []Category{
	{"Psicologia & ABA", "psicologia"},
	{"Fonoaudiologia", "fonoaudiologia"},
	{"Terapia Ocupacional", "terapia ocupacional"},
	{"Psicopedagogia", "psicopedagogia"},
	{"Fisioterapia", "fisioterapia"},
	{"Nutrição", "nutricao"},
	{"Odontologia", "odontologia"},

	{"Programação & TI", "tecnologia"},
	{"Design & Artes Visuais", "design"},
	{"Marketing & Redes Sociais", "marketing"},
	{"Edição de Vídeo & Foto", "audiovisual"},
	{"Cibersegurança", "seguranca digital"},

	{"Reforço Escolar", "reforco escolar"},
	{"Idiomas", "idiomas"},
	{"Música & Instrumentos", "musica"},
	{"Artes & Pintura", "artes"},
	{"Educação Especial", "educacao especial"},

	{"Confeitaria & Doces", "confeitaria"},
	{"Salgados & Encomendas", "gastronomia"},
	{"Marmitas & Congelados", "alimentacao"},
	{"Panificação", "panificacao"},

	{"Artesanato & Presentes", "artesanato"},
	{"Costura & Reformas", "costura"},
	{"Papelaria Personalizada", "papelaria"},
	{"Joias & Bijuterias", "acessorios"},

	{"Consultoria & Mentoria", "consultoria"},
	{"Contabilidade", "contabilidade"},
	{"Jurídico / Advocacia", "juridico"},
	{"Arquitetura & Engenharia", "arquitetura"},

	{"Organização (Personal Organizer)", "organizacao"},
	{"Limpeza & Cuidados", "servicos domesticos"},
	{"Reformas & Reparos", "reformas"},
	{"Jardinagem", "jardinagem"},
	{"Pet Shop & Cuidados", "pet"},

	{"Beleza & Barbearia", "estetica"},
	{"Maquiagem", "maquiagem"},
	{"Moda & Vestuário", "moda"},

	{"Outros Serviços", "outros"},
}

func IsCategory(v string) bool {
	for _, c := range Categories {
		if c.Value == v {
			return true
		}
	}
	return false
}
