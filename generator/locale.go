package generator

import (
	"strconv"
	"strings"
)

// Locale holds the user visible strings of goal pages by key. Patterns may
// contain {0}-style placeholders.
type Locale struct {
	Tag     string
	strings map[string]string
}

// DefaultLocale is used for unknown tags and for keys a locale lacks.
const DefaultLocale = "en"

var locales = map[string]map[string]string{
	"en": {
		"fullname":                     "Full name:",
		"description":                  "Description:",
		"nodescription":                "(no description)",
		"deprecated":                   "<strong>Deprecated.</strong>",
		"attributes":                   "Attributes:",
		"projectRequired":              "Requires a Maven project to be executed.",
		"reportingMojo":                "Requires a Maven report to be executed.",
		"aggregator":                   "Executes as an aggregator goal.",
		"directInvocationOnly":         "Executes by direct invocation only.",
		"dependencyResolutionRequired": "Requires dependency resolution of artifacts in scope: <code>{0}</code>.",
		"dependencyCollectionRequired": "Requires dependency collection of artifacts in scope: <code>{0}</code>.",
		"threadSafe":                   "The goal is thread-safe and supports parallel builds.",
		"notThreadSafe":                "The goal is not marked as thread-safe and thus does not support parallel builds.",
		"since":                        "Since version: <code>{0}</code>.",
		"phase":                        "Binds by default to the lifecycle phase: <code>{0}</code>.",
		"executePhase":                 "Invokes the execution of the lifecycle phase <code>{0}</code> prior to executing itself.",
		"executeGoal":                  "Invokes the execution of this plugin's goal <code>{0}</code> prior to executing itself.",
		"executeLifecycle":             "Executes in its own lifecycle: <code>{0}</code>.",
		"onlineRequired":               "Requires that Maven runs in online mode.",
		"inheritedByDefault":           "Is NOT inherited by default in multi-project builds.",
		"requiredParameters":           "Required Parameters",
		"optionalParameters":           "Optional Parameters",
		"parameterDetails":             "Parameter Details",
		"noParameter":                  "(no parameters)",
		"name":                         "Name",
		"type":                         "Type",
		"sinceColumn":                  "Since",
		"descriptionColumn":            "Description",
		"required":                     "Required",
		"expression":                   "Expression",
		"property":                     "User Property",
		"default":                      "Default",
		"alias":                        "Alias",
		"yes":                          "Yes",
		"no":                           "No",
		"noVersion":                    "No version given",
		"noReason":                     "No reason given",
	},
	"de": {
		"fullname":                     "Vollständiger Name:",
		"description":                  "Beschreibung:",
		"nodescription":                "(keine Beschreibung)",
		"deprecated":                   "<strong>Veraltet.</strong>",
		"attributes":                   "Attribute:",
		"projectRequired":              "Benötigt ein Maven-Projekt zur Ausführung.",
		"reportingMojo":                "Benötigt einen Maven-Bericht zur Ausführung.",
		"aggregator":                   "Wird als Aggregator-Goal ausgeführt.",
		"directInvocationOnly":         "Wird nur bei direktem Aufruf ausgeführt.",
		"dependencyResolutionRequired": "Benötigt die Auflösung der Abhängigkeiten im Scope: <code>{0}</code>.",
		"dependencyCollectionRequired": "Benötigt das Sammeln der Abhängigkeiten im Scope: <code>{0}</code>.",
		"threadSafe":                   "Das Goal ist thread-sicher und unterstützt parallele Builds.",
		"notThreadSafe":                "Das Goal ist nicht als thread-sicher markiert und unterstützt daher keine parallelen Builds.",
		"since":                        "Seit Version: <code>{0}</code>.",
		"phase":                        "Wird standardmäßig an die Lebenszyklus-Phase <code>{0}</code> gebunden.",
		"executePhase":                 "Ruft vor der eigenen Ausführung die Lebenszyklus-Phase <code>{0}</code> auf.",
		"executeGoal":                  "Ruft vor der eigenen Ausführung das Goal <code>{0}</code> dieses Plugins auf.",
		"executeLifecycle":             "Wird in einem eigenen Lebenszyklus ausgeführt: <code>{0}</code>.",
		"onlineRequired":               "Benötigt, dass Maven im Online-Modus läuft.",
		"inheritedByDefault":           "Wird in Multi-Projekt-Builds standardmäßig NICHT vererbt.",
		"requiredParameters":           "Erforderliche Parameter",
		"optionalParameters":           "Optionale Parameter",
		"parameterDetails":             "Parameter-Details",
		"noParameter":                  "(keine Parameter)",
		"name":                         "Name",
		"type":                         "Typ",
		"sinceColumn":                  "Seit",
		"descriptionColumn":            "Beschreibung",
		"required":                     "Erforderlich",
		"expression":                   "Ausdruck",
		"property":                     "Benutzer-Property",
		"default":                      "Standardwert",
		"alias":                        "Alias",
		"yes":                          "Ja",
		"no":                           "Nein",
		"noVersion":                    "Keine Version angegeben",
		"noReason":                     "Kein Grund angegeben",
	},
}

// LocaleFor returns the locale for a tag such as "de" or "de_DE". Unknown
// languages fall back to DefaultLocale.
func LocaleFor(tag string) Locale {
	lang := strings.ToLower(tag)
	if i := strings.IndexAny(lang, "_-"); i >= 0 {
		lang = lang[:i]
	}
	if _, ok := locales[lang]; !ok {
		lang = DefaultLocale
	}
	return Locale{Tag: lang, strings: locales[lang]}
}

// Get returns the string for key, falling back to DefaultLocale and then
// to the key itself.
func (l Locale) Get(key string) string {
	if s, ok := l.strings[key]; ok {
		return s
	}
	if s, ok := locales[DefaultLocale][key]; ok {
		return s
	}
	return key
}

// Format replaces {0}, {1}... in the pattern for key.
func (l Locale) Format(key string, args ...string) string {
	s := l.Get(key)
	for i, arg := range args {
		s = strings.ReplaceAll(s, "{"+strconv.Itoa(i)+"}", arg)
	}
	return s
}
