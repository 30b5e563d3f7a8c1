package eventbus

// 레시피 라우팅 결과와 사이클 완료 이벤트가 각각의 토픽으로 나간다.
var (
	TopicRecipeEvents = NewTopic("viral-recipes.recipe.events")
	TopicCycleEvents  = NewTopic("viral-recipes.cycle.events")
)

var AllTopics = []Topic{
	TopicRecipeEvents,
	TopicCycleEvents,
}
