package cityresolver

import (
	"regexp"
	"strings"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/textutils"
)

const knownCityBonus = 0.3

// countryPrefix is the country code card processors put before the
// merchant name, e.g. "BY KEBAB FACTORY, MINSK".
const countryPrefix = `(?:BY|BLR|RB|RU|RUS|PL|LT|LV|UA|KZ)`

const cityToken = `(\p{L}[\p{L}\-]*\p{L})`

type pattern struct {
	name       string
	re         *regexp.Regexp
	confidence float64
	city       int // capture group holding the city
	// merchant is the group holding the merchant name, or 0 when the
	// cleaned description is the input with the cut group removed
	merchant int
	cut      int
}

// patterns is ordered by base confidence. Every pattern is tried; the best
// score wins and ties keep the earlier pattern.
var patterns = []pattern{
	{
		name:       "prefix-name-comma-city",
		re:         regexp.MustCompile(`(?i)^\s*` + countryPrefix + `\s+(.+?)\s*,\s*(\p{L}[\p{L}\- ]*\p{L})\s*$`),
		confidence: 0.9,
		city:       2,
		merchant:   1,
	},
	{
		name:       "prefix-name-city",
		re:         regexp.MustCompile(`(?i)^\s*` + countryPrefix + `\s+(.+)\s+` + cityToken + `\s*$`),
		confidence: 0.8,
		city:       2,
		merchant:   1,
	},
	{
		name:       "transport-suffix",
		re:         regexp.MustCompile(`(?i)(?:^|[^\p{L}])(\p{L}{3,}?)(ELEKTROTRANS|AVTOTRANS|TRANS|ЭЛЕКТРОТРАНС|АВТОТРАНС|ТРАНС)(?:$|[^\p{L}])`),
		confidence: 0.7,
		city:       1,
		cut:        1,
	},
	{
		name:       "quoted",
		re:         regexp.MustCompile(`["«(]\s*(\p{L}[\p{L}\- ]*\p{L})\s*["»)]`),
		confidence: 0.6,
		city:       1,
		cut:        0,
	},
	{
		name:       "after-comma",
		re:         regexp.MustCompile(`,\s*(\p{L}[\p{L}\- ]*\p{L})\s*$`),
		confidence: 0.5,
		city:       1,
		cut:        0,
	},
	{
		name:       "trailing-word",
		re:         regexp.MustCompile(`\s(\p{L}[\p{L}\-]{2,})\s*$`),
		confidence: 0.4,
		city:       1,
		cut:        1,
	},
}

// transportWords are glued prefixes that are never a city on their own.
var transportWords = map[string]bool{"avto": true, "auto": true, "elektro": true, "авто": true, "электро": true}

var (
	edgePunct  = " \t,;:.-\"«»()"
	emptyPairs = strings.NewReplacer("()", " ", "\"\"", " ", "«»", " ")
	commaRunRe = regexp.MustCompile(`\s*[,;]+\s*`)
)

// cleanDescription collapses what is left after removing the city and
// prefix tokens and title-cases it.
func cleanDescription(s string) string {
	s = emptyPairs.Replace(s)
	s = commaRunRe.ReplaceAllString(s, ", ")
	s = textutils.CollapseWhitespace(s)
	s = strings.Trim(s, edgePunct)
	return textutils.TitleCase(s)
}

// builtinCities are Belarusian cities recognized without a catalog entry.
// They only raise confidence; resolution to an id needs the catalog.
var builtinCities = []string{
	"Minsk", "Brest", "Grodno", "Gomel", "Mogilev", "Vitebsk",
	"Bobruisk", "Baranovichi", "Borisov", "Pinsk", "Orsha", "Mozyr",
	"Soligorsk", "Lida", "Molodechno", "Polotsk", "Novopolotsk", "Zhlobin",
	"Svetlogorsk", "Rechitsa", "Zhodino", "Slutsk", "Kobrin", "Slonim",
	"Volkovysk", "Smorgon", "Rogachev", "Dzerzhinsk", "Osipovichi",
	"Logoysk", "Nesvizh", "Zaslavl", "Fanipol", "Kalinkovichi",
	"Минск", "Брест", "Гродно", "Гомель", "Могилев", "Могилёв", "Витебск",
	"Бобруйск", "Барановичи", "Борисов", "Пинск", "Орша", "Мозырь",
	"Солигорск", "Лида", "Молодечно", "Полоцк", "Новополоцк", "Жлобин",
	"Логойск", "Несвиж", "Заславль", "Фаниполь",
}
