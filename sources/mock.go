package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"viral-recipes/models"
)

type demoPost struct {
	platform models.SourceType
	id       string
	author   string
	title    string
	caption  string
	metrics  models.Metrics
	ageHours int
}

// demoPosts 는 MOCK_EXTERNAL_APIS 모드에서 쓰는 고정 데모 콘텐츠다.
// 마지막 두 항목은 각각 다른 플랫폼으로 재업로드된 게시물과 바이럴이 아닌 게시물이다.
var demoPosts = []demoPost{
	{
		platform: models.SourceTikTok, id: "7301", author: "@cozinhadaana",
		title: "Bolo de Chocolate de Caneca 2 Minutos",
		caption: `Bolo de chocolate super fofinho pronto no microondas! 🍫

Ingredientes:
- 4 colheres de sopa de farinha de trigo
- 4 colheres de sopa de açúcar
- 2 colheres de sopa de chocolate em pó
- 1 ovo
- 3 colheres de sopa de leite
- 3 colheres de sopa de óleo
- 1 pitada de sal

Modo de preparo:
1. Misture todos os ingredientes secos na caneca
2. Adicione o ovo, leite e óleo
3. Misture bem com um garfo até ficar homogêneo
4. Leve ao microondas por 2 minutos em potência máxima
5. Espere esfriar um pouco e sirva

Preparo: 2 min
Cozimento: 2 min
Rende 1 porção
Dica: use uma caneca grande para não transbordar
#bolo #receitafacil #chocolate`,
		metrics:  models.Metrics{Views: 2_500_000, Likes: 180_000, Shares: 45_000, Comments: 3_200},
		ageHours: 5,
	},
	{
		platform: models.SourceInstagram, id: "C1pizza", author: "@massascaseiras",
		title: "Pizza de Frigideira Sem Forno",
		caption: `Pizza deliciosa feita na frigideira, massa caseira super fácil e crocante 🍕

Ingredientes:
- 1 xícara de farinha de trigo
- 1/2 xícara de água morna
- 1 colher de chá de fermento
- 1 pitada de sal
- 200 g de queijo mussarela
- 3 colheres de sopa de molho de tomate

Modo de preparo:
1. Misture farinha, fermento, sal e água até formar uma massa
2. Deixe descansar por 15 minutos
3. Abra a massa e coloque na frigideira quente
4. Quando dourar embaixo, vire e adicione molho e queijo
5. Tampe a frigideira até o queijo derreter

Preparo: 25 min
Cozimento: 10 min
Serve 2 pessoas
#pizza #semforno`,
		metrics:  models.Metrics{Views: 1_800_000, Likes: 150_000, Shares: 38_000, Comments: 2_100},
		ageHours: 8,
	},
	{
		platform: models.SourceTikTok, id: "7302", author: "@docesdamari",
		title: "Mousse de Maracujá 3 Ingredientes",
		caption: `Mousse cremoso de maracujá com apenas 3 ingredientes! Super fácil e rende muito.

Ingredientes:
- 1 lata de leite condensado
- 1 lata de creme de leite
- 1 xícara de suco de maracujá concentrado

Modo de preparo:
1. Bata no liquidificador o leite condensado e o suco de maracujá
2. Adicione o creme de leite e bata rapidamente
3. Distribua em tacinhas e leve à geladeira por 2 horas
4. Decore com sementes de maracujá

Preparo: 10 min
Rende 6 porções
#mousse #sobremesa`,
		metrics:  models.Metrics{Views: 950_000, Likes: 85_000, Shares: 22_000, Comments: 900},
		ageHours: 12,
	},
	{
		platform: models.SourceInstagram, id: "C1paodequeijo", author: "@mineirinhanacozinha",
		title: "Pão de Queijo de Liquidificador",
		caption: `Pão de queijo super fácil! Tudo no liquidificador, sem sujar as mãos.

Ingredientes:
- 1 xícara de leite
- 1/2 xícara de óleo
- 2 ovos
- 1 pitada de sal
- 2 xícaras de polvilho azedo
- 1 xícara de queijo ralado

Modo de preparo:
1. Bata no liquidificador leite, óleo, ovos e sal
2. Transfira para uma tigela
3. Adicione o polvilho aos poucos mexendo
4. Adicione o queijo e misture bem
5. Unte uma forma e despeje a massa
6. Asse a 180 graus, forno por 40 minutos

Preparo: 10 min
Rende 8 porções
#paodequeijo #lanche`,
		metrics:  models.Metrics{Views: 1_200_000, Likes: 98_000, Shares: 28_000, Comments: 1_500},
		ageHours: 20,
	},
	{
		platform: models.SourceTikTok, id: "7303", author: "@fitnacozinha",
		title: "Brigadeiro de Colher Fit",
		caption: `Brigadeiro cremoso fit sem leite condensado, perfeito para dieta 💪

Ingredientes:
- 1 xícara de leite desnatado
- 3 colheres de sopa de cacau em pó
- 2 colheres de sopa de adoçante culinário
- 1 colher de sopa de amido de milho

Modo de preparo:
1. Misture todos os ingredientes numa panela
2. Leve ao fogo médio mexendo sempre
3. Cozinhe até engrossar e soltar do fundo
4. Deixe esfriar e leve à geladeira

Preparo: 5 min
Cozimento: 10 min
Rende 4 porções
#fit #brigadeiro`,
		metrics:  models.Metrics{Views: 780_000, Likes: 65_000, Shares: 15_000, Comments: 700},
		ageHours: 30,
	},
	{
		// 같은 레시피를 인스타그램에 다시 올린 게시물. URL 은 달라서 중복 제거 엔진이 걸러야 한다.
		platform: models.SourceInstagram, id: "C1bolocaneca", author: "@receitasvirais",
		title: "Bolo de chocolate de caneca 2 minutos!!",
		caption: `Repost do bolo de caneca que viralizou 🍫

Ingredientes:
- 4 colheres de sopa de farinha de trigo
- 4 colheres de sopa de açúcar
- 2 colheres de sopa de chocolate em pó
- 1 ovo
- 3 colheres de sopa de leite
- 3 colheres de sopa de óleo
- 1 pitada de sal

Modo de preparo:
1. Misture os ingredientes secos direto na caneca
2. Junte o ovo, o leite e o óleo
3. Leve ao microondas por 2 minutos

#bolodecaneca #chocolate`,
		metrics:  models.Metrics{Views: 640_000, Likes: 52_000, Shares: 9_000, Comments: 400},
		ageHours: 3,
	},
	{
		platform: models.SourceTikTok, id: "7304", author: "@novatanacozinha",
		title: "Meu primeiro arroz soltinho",
		caption: `Testando arroz pela primeira vez

Ingredientes:
- 1 xícara de arroz
- 2 xícaras de água

Modo de preparo:
1. Refogue o arroz no óleo quente
2. Junte a água e cozinhe em fogo baixo`,
		metrics:  models.Metrics{Views: 1_200, Likes: 80, Shares: 2, Comments: 5},
		ageHours: 2,
	},
}

// MockSource 는 한 플랫폼의 데모 게시물을 반환한다. 폴링할 때마다 지표가 10% 씩 늘어난다.
type MockSource struct {
	platform models.SourceType
	now      func() time.Time

	mu    sync.Mutex
	polls int
}

func NewMockSource(platform models.SourceType) *MockSource {
	return &MockSource{platform: platform, now: time.Now}
}

func (s *MockSource) Name() string { return "mock:" + string(s.platform) }

func (s *MockSource) Poll(ctx context.Context, since time.Time) ([]models.RawContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(s.Name(), err)
	}

	s.mu.Lock()
	growth := 1 + 0.1*float64(s.polls)
	s.polls++
	s.mu.Unlock()

	now := s.now().UTC()
	var out []models.RawContent
	for _, p := range demoPosts {
		if p.platform != s.platform {
			continue
		}
		out = append(out, models.RawContent{
			SourceType:    p.platform,
			SourceName:    s.Name(),
			SourceProfile: p.author,
			OriginURL:     demoURL(p),
			Title:         p.title,
			Caption:       p.caption,
			MediaURL:      demoURL(p) + "/cover.jpg",
			Metrics: models.Metrics{
				Views:    scale(p.metrics.Views, growth),
				Likes:    scale(p.metrics.Likes, growth),
				Shares:   scale(p.metrics.Shares, growth),
				Comments: scale(p.metrics.Comments, growth),
			},
			PublishedAt: now.Add(-time.Duration(p.ageHours) * time.Hour),
			ObservedAt:  now,
		})
	}
	return out, nil
}

func demoURL(p demoPost) string {
	switch p.platform {
	case models.SourceTikTok:
		return fmt.Sprintf("https://www.tiktok.com/%s/video/%s", p.author, p.id)
	case models.SourceInstagram:
		return fmt.Sprintf("https://www.instagram.com/reel/%s", p.id)
	default:
		return fmt.Sprintf("https://example.com/%s/%s", p.platform, p.id)
	}
}

func scale(v int64, f float64) int64 {
	return int64(float64(v) * f)
}
