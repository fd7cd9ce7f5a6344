package attributes

import (
	"golang.org/x/text/language"
)

// Entry is the label and help text of one attribute.
type Entry struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Help  string `json:"help"`
}

// Catalog holds the labels and help text for one language.
type Catalog struct {
	Tag    language.Tag
	labels [Size]string
	help   [Size]string
}

// Labels returns the attribute labels in grid order.
func (c *Catalog) Labels() []string {
	return append([]string(nil), c.labels[:]...)
}

// Entry returns the label and help text of the attribute at index.
func (c *Catalog) Entry(index int) (Entry, error) {
	if err := CheckIndex(index); err != nil {
		return Entry{}, err
	}
	return Entry{Index: index, Label: c.labels[index], Help: c.help[index]}, nil
}

// Entries returns every attribute in grid order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, Size)
	for i := range out {
		out[i] = Entry{Index: i, Label: c.labels[i], Help: c.help[i]}
	}
	return out
}

var english = &Catalog{
	Tag: language.English,
	labels: [Size]string{
		"Soul", "Charisma", "Composure", "Intuition", "Perception",
		"Reason", "Violence", "Fortitude", "Willpower", "Reflexes",
	},
	help: [Size]string{
		"Measures the character's sensitivity to supernatural forces. A PC with high Soul perceives Reality more easily and is more attuned to their intrinsic powers.",
		"Measures the character's charm, leadership and rhetorical talent. A PC with high Charisma easily persuades and manipulates others.",
		"Measures the character's control under pressure. A PC with high Composure is good at stealth, theft and other situations that demand quick decisions under stress.",
		"Measures the character's empathy and instinct. A PC with high Intuition is good at reading the intentions and hidden motives of other intelligent creatures.",
		"Measures the character's alertness. A PC with high Perception is good at assessing the surroundings and noticing what others overlook.",
		"Measures the character's analytical ability. A PC with high Reason is good at gathering information and investigating.",
		"Measures the character's brute strength, combat skill and ferocity. A PC with high Violence excels at inflicting harm on others.",
		"Measures the character's physical resilience, pain threshold and stress response when suffering physical injury.",
		"Measures the character's mental resilience, composure, peace of mind and capacity to deal with trauma. A PC with high Willpower can resist the terrifying influence of mundane and supernatural powers and stay sane.",
		"Measures speed, reaction and physical instinct when attacked or at risk of injury. A PC with high Reflexes is better at avoiding harm.",
	},
}

var portuguese = &Catalog{
	Tag: language.BrazilianPortuguese,
	labels: [Size]string{
		"Alma", "Carisma", "Firmeza", "Intuição", "Percepção",
		"Razão", "Violência", "Fortitude", "Vontade", "Reflexos",
	},
	help: [Size]string{
		"Mede a sensibilidade do personagem às forças sobrenaturais. Uma PJ com Alma elevada tem mais facilidade em perceber a Realidade e está mais sintonizado com seus poderes intrínsecos.",
		"Mede o charme, a liderança e o talento retórico do personagem. Uma PJ com Carisma elevado facilmente persuade e manipula os outros.",
		"Mede o controle do personagem sob pressão. Uma PJ com Firmeza elevada é boa em furtividade, furto e outras situações que exigem decisões rápidas em situações de estresse.",
		"Mede a empatia e o instinto do personagem. Uma PJ com Intuição elevada é boa em perceber as intenções e motivos ocultos de outras criaturas inteligentes.",
		"Mede o estado de alerta do personagem. Uma PJ com Percepção elevada é boa em avaliar o ambiente e perceber o que os outros ignoram.",
		"Mede a capacidade analítica da personagem. Uma PJ com Razão elevada é boa em coleta de informações e investigação.",
		"Mede a força bruta, habilidade de combate e ferocidade do personagem. Um PJ com Violência elevada se sobressai em infligir dano aos outros.",
		"Mede a resistência física do personagem, o limiar de dor, e a resposta ao estresse quando sofre lesões físicas.",
		"Mede a resiliência mental do personagem, a compostura, paz de espírito e capacidade para lidar com o trauma. Uma PJ com Vontade elevada pode resistir à influência aterrorizante de poderes mundanos e sobrenaturais e permanecer são.",
		"Mede a rapidez, reação e instinto físico quando é agredido ou quando sofre risco de lesão. Um PJ com Reflexos elevados é melhor ao tentar evitar sofrer dano.",
	},
}

var (
	catalogs = []*Catalog{english, portuguese}
	matcher  = language.NewMatcher([]language.Tag{english.Tag, portuguese.Tag})
)

// For returns the catalog best matching tag. English is the fallback.
func For(tag language.Tag) *Catalog {
	_, index, _ := matcher.Match(tag)
	return catalogs[index]
}

// ForLocale parses a BCP 47 locale such as "pt-BR" and returns its catalog.
// Unparseable locales get the English catalog.
func ForLocale(locale string) *Catalog {
	tag, err := language.Parse(locale)
	if err != nil {
		return english
	}
	return For(tag)
}

// ForAcceptLanguage picks a catalog from an HTTP Accept-Language header,
// falling back to fallback when the header is empty or unparseable.
func ForAcceptLanguage(header string, fallback *Catalog) *Catalog {
	if header == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return fallback
	}
	return catalogs[index]
}
