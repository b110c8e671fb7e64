package query

// ResolvedQuery - шаблон и извлечённые из текста параметры.
// Тип параметров определяется исполнителем по объявлению шаблона.
type ResolvedQuery struct {
	Template *Template
	Params   []string
}

// Resolve ищет первый подходящий шаблон в порядке библиотеки.
// false означает, что вопрос не распознан (это не ошибка).
func (l *Library) Resolve(text string) (*ResolvedQuery, bool) {
	for _, t := range l.templates {
		for _, re := range t.Patterns {
			match := re.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			params := make([]string, len(match)-1)
			copy(params, match[1:])
			return &ResolvedQuery{Template: t, Params: params}, true
		}
	}
	return nil, false
}
