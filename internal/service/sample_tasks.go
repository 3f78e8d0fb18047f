package service

import "paircode/internal/model"

// SampleTasks returns fresh copies of the bundled tasks
func SampleTasks() []*model.Task {
	return []*model.Task{
		{
			ID:            "task-1",
			Title:         "Dark Mode Persistence Bug",
			Description:   "Dark mode preference is lost when the page reloads. The toggle works but the setting never reaches storage. Fix the persistence.",
			Difficulty:    model.DifficultyEasy,
			EstimatedTime: 20,
			Language:      "typescript",
			StarterCode: `// Theme context implementation
export function useTheme() {
  const [theme, setTheme] = useState<'light' | 'dark'>('light')

  const toggleTheme = () => {
    setTheme(theme === 'light' ? 'dark' : 'light')
  }

  return { theme, toggleTheme }
}
`,
		},
		{
			ID:            "task-2",
			Title:         "Pagination Infinite Scroll",
			Description:   "Load the next page of products when the user reaches the bottom of the list. Show a loading state and never request the same page twice.",
			Difficulty:    model.DifficultyMedium,
			EstimatedTime: 45,
			Language:      "typescript",
			StarterCode: `// Product list component
export function ProductList() {
  const [products, setProducts] = useState([])
  const [page, setPage] = useState(1)

  return (
    <div>
      {products.map(product => (
        <ProductCard key={product.id} product={product} />
      ))}
    </div>
  )
}
`,
		},
		{
			ID:            "task-3",
			Title:         "Auth Redirect Loop",
			Description:   "Visiting a protected route bounces between the login page and the route forever. Fix the guard so it waits for the auth check to settle.",
			Difficulty:    model.DifficultyMedium,
			EstimatedTime: 40,
			Language:      "typescript",
			Files: []model.TaskFile{
				{Path: "src/App.tsx", Content: `import { RequireAuth } from './RequireAuth'

export default function App() {
  return (
    <RequireAuth>
      <Dashboard />
    </RequireAuth>
  )
}
`},
				{Path: "src/RequireAuth.tsx", Content: `export function RequireAuth({ children }: RequireAuthProps) {
  const { user, loading } = useAuth()
  const navigate = useNavigate()

  useEffect(() => {
    if (!user) {
      navigate('/login')
    }
  }, [user, navigate])

  return user ? children : null
}
`},
			},
		},
		{
			ID:            "task-4",
			Title:         "Rate Limiter",
			Description:   "Implement a sliding-window rate limiter that allows at most N calls per key in any window of W seconds.",
			Difficulty:    model.DifficultyHard,
			EstimatedTime: 60,
			Language:      "python",
		},
	}
}
