package category

var spanishStopWords = []string{
	"a", "al", "algo", "algunas", "algunos", "ante", "antes", "como", "con", "contra", "cual",
	"cuando", "de", "del", "desde", "donde", "durante", "e", "el", "ella", "ellas", "ellos",
	"en", "entre", "era", "erais", "eran", "eras", "eres", "es", "esa", "esas", "ese", "eso",
	"esos", "esta", "estaba", "estado", "estas", "este", "esto", "estos", "fue", "fueron",
	"fui", "ha", "había", "han", "has", "hasta", "hay", "la", "las", "le", "les", "lo", "los",
	"me", "mi", "mis", "mucho", "muy", "más", "mí", "nada", "ni", "no", "nos", "nosotros",
	"nuestra", "nuestro", "o", "os", "otra", "otro", "para", "pero", "poco", "por", "porque",
	"que", "quien", "qué", "se", "sea", "ser", "si", "sido", "sin", "sobre", "su", "sus",
	"también", "tanto", "te", "tenía", "tiene", "todo", "todos", "tu", "tus", "tú", "un",
	"una", "uno", "unos", "vosotros", "y", "ya", "yo", "él",
}

var englishStopWords = []string{
	"a", "about", "after", "all", "an", "and", "any", "are", "as", "at", "be", "been", "but",
	"by", "can", "did", "do", "for", "from", "had", "has", "have", "he", "her", "his", "i",
	"if", "in", "into", "is", "it", "its", "me", "my", "no", "not", "of", "on", "or", "our",
	"she", "so", "that", "the", "their", "them", "then", "there", "they", "this", "to", "was",
	"we", "were", "what", "when", "which", "who", "will", "with", "you", "your",
}

func stopWordSet(language string) map[string]struct{} {
	list := spanishStopWords
	if language == "english" {
		list = englishStopWords
	}
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		set[w] = struct{}{}
	}
	return set
}
